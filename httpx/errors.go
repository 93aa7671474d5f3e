package httpx

import (
	"fmt"
	"net/http"

	"github.com/mbolis/patrol-report/log"
)

// Will log an error with its code, and send an HTTP response with status 500
// and default text. The error itself never reaches the client.
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.WithFields(log.Fields{"code": code}).Error(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and no body
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	w.WriteHeader(http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// Will log err with its code at the given level, and send an HTTP response
// with the given status and the error text, for errors meant for the client
// (rejected events, conflicting sessions)
func LogStatusErr(w http.ResponseWriter, status int, level log.Level, code string, err error) {
	log.Log(level, code+":", err)
	http.Error(w, err.Error(), status)
}
