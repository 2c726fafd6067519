package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"teashop/utils"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandlerFunc is an http handler that reports failure by returning an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// appErrorer is implemented by errors that carry their own user-facing form.
type appErrorer interface {
	AppError() *utils.AppError
}

// Handle adapts fn to http.HandlerFunc and turns its error into a JSON response.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, err)
		}
	}
}

// Translate maps an error onto the AppError sent to the client.
func Translate(err error) *utils.AppError {
	var (
		custom appErrorer
		appErr *utils.AppError
		verrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &custom):
		return custom.AppError()
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &verrs):
		return utils.ValidationFromErrors(verrs)
	case mongo.IsDuplicateKeyError(err):
		return utils.Conflict("already exists")
	case errors.Is(err, utils.ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return utils.NotFound("not found")
	}
	return utils.Internal("something went wrong", err)
}

func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := Translate(err)
	entry := utils.Log.WithError(err).WithField("method", r.Method).WithField("path", r.URL.Path)
	if appErr.Status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	WriteJSON(w, appErr.Status, appErr)
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.WithError(err).Warn("encode response")
	}
}
