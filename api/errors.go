package api

import (
    "encoding/json"
    "errors"
    "io"
    "net/http"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/service/registry"
    "github.com/go-chi/render"
)

type ErrResponse struct {
    Err            error `json:"-"`
    HTTPStatusCode int   `json:"-"`

    StatusText string           `json:"status"`
    ErrorText  string           `json:"error,omitempty"`
    Diagnosis  engine.Diagnosis `json:"diagnosis,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
    render.Status(r, e.HTTPStatusCode)
    return nil
}

func newErrResponse(err error, status int) *ErrResponse {
    return &ErrResponse{
        Err:            err,
        HTTPStatusCode: status,
        StatusText:     http.StatusText(status),
        ErrorText:      err.Error(),
        Diagnosis:      engine.DiagnosisOf(err),
    }
}

func ErrInvalidRequest(err error) render.Renderer {
    return newErrResponse(err, http.StatusBadRequest)
}

func ErrNotFound(err error) render.Renderer {
    return newErrResponse(err, http.StatusNotFound)
}

func ErrConflict(err error) render.Renderer {
    return newErrResponse(err, http.StatusConflict)
}

func ErrCorrupted(err error) render.Renderer {
    return newErrResponse(err, http.StatusUnprocessableEntity)
}

func ErrInsufficientStorage(err error) render.Renderer {
    return newErrResponse(err, http.StatusInsufficientStorage)
}

func ErrInternalServerError(err error) render.Renderer {
    return newErrResponse(err, http.StatusInternalServerError)
}

// ErrorResponse picks the status for an error returned by the registry or a
// stack operation.
func ErrorResponse(err error) render.Renderer {
    var regErr registry.Error
    if errors.As(err, &regErr) {
        switch regErr.ErrorCode {
        case registry.NoSuchStack:
            return ErrNotFound(err)
        case registry.StackExists:
            return ErrConflict(err)
        default:
            return ErrInvalidRequest(err)
        }
    }

    if d := engine.DiagnosisOf(err); !d.OK() {
        switch {
        case d.Corrupted():
            return ErrCorrupted(err)
        case d.Has(engine.AllocationFailed):
            return ErrInsufficientStorage(err)
        default:
            return ErrConflict(err)
        }
    }

    var syntaxErr *json.SyntaxError
    var typeErr *json.UnmarshalTypeError
    if errors.Is(err, ErrMissingValue) || errors.Is(err, ErrEmptyBody) || errors.Is(err, io.ErrUnexpectedEOF) ||
        errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
        return ErrInvalidRequest(err)
    }
    return ErrInternalServerError(err)
}
