package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	"github.com/matchpoint-dev/matchpoint/internal/actions"
	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/forms"
)

// render executes a page template with the fields every page needs
func (s *Server) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Session"] = GetSession(c)
	data["Debug"] = !s.config.IsProduction()
	data["RequestID"] = c.GetString(requestIDKey)
	// Every rendered form is a new instance with its own pending flag
	data["FormID"] = ulid.Make().String()
	if _, ok := data["View"]; !ok {
		data["View"] = forms.View{}
	}

	c.HTML(status, name, data)
}

// viewStatus picks the response status for a re-rendered form
func viewStatus(v forms.View) int {
	switch {
	case len(v.FieldErrors) > 0:
		return http.StatusUnprocessableEntity
	case v.Failed() && v.Message == forms.MsgInProgress:
		return http.StatusConflict
	case v.Failed() && v.Result.Status >= 400:
		return v.Result.Status
	case v.Failed():
		return http.StatusInternalServerError
	case v.HideFields:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}

// resultView wraps a non-form action result so the shared alert partial can show it
func resultView(form string, res actions.Result) forms.View {
	v := forms.View{Form: form, Result: res, Message: res.Message, Details: res.Details, State: forms.Success}
	if !res.Success {
		v.State = forms.Error
	}
	return v
}

// formIDField carries the per-render form instance id
const formIDField = "form_id"

// formKey identifies the form instance a submission belongs to. Without a
// form id the caller's session is used, and anonymous callers are never
// debounced against each other.
func formKey(c *gin.Context) string {
	if id := c.PostForm(formIDField); id != "" {
		return "form:" + id
	}
	if token, err := auth.TokenFromRequest(c.Request); err == nil {
		return "session:" + token
	}
	return "request:" + c.GetString(requestIDKey)
}

func formOptions[T any](s *Server, extra ...forms.Option[T]) []forms.Option[T] {
	opts := []forms.Option[T]{
		forms.WithObserver[T](s.observeForm),
		forms.WithGuard[T](s.guard),
	}
	return append(opts, extra...)
}

func (s *Server) observeForm(form string, from, to forms.State) {
	s.logger.Debug().Str("form", form).Stringer("from", from).Stringer("to", to).Msg("Form state transition")
}
