package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matchpoint-dev/matchpoint/internal/actions"
	"github.com/matchpoint-dev/matchpoint/internal/auth"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
	"github.com/matchpoint-dev/matchpoint/internal/forms"
)

// Notices shown on the login page after a redirect
var loginNotices = map[string]string{
	"registered": "Account created. Please log in.",
	"reset":      "Password reset successfully. Please log in with your new password.",
}

func (s *Server) bindForm(c *gin.Context, form string, in any) {
	if err := c.ShouldBind(in); err != nil {
		s.logger.Debug().Err(err).Str("form", form).Msg("Failed to bind form")
	}
}

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, "login.html", "Log in", gin.H{
		"View":   forms.View{Form: "login", Values: forms.LoginInput{}},
		"Notice": loginNotices[c.Query("notice")],
	})
}

func (s *Server) submitLogin(c *gin.Context) {
	var in forms.LoginInput
	s.bindForm(c, "login", &in)

	ctrl := forms.NewController("login", s.validator,
		func(ctx context.Context, in forms.LoginInput) actions.Result {
			return s.actions.Login(ctx, c.Writer, backend.LoginRequest{Email: in.Email, Password: in.Password})
		},
		formOptions[forms.LoginInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		view.Values = forms.LoginInput{Email: in.Email}
		s.render(c, viewStatus(view), "login.html", "Log in", gin.H{"View": view})
		return
	}

	target := "/home"
	if user, ok := view.Result.Data.(auth.User); ok && user.Role == auth.RoleAdmin {
		target = "/admin/users"
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (s *Server) registerPage(c *gin.Context) {
	s.render(c, http.StatusOK, "register.html", "Sign up", gin.H{
		"View": forms.View{Form: "register", Values: forms.RegisterInput{}},
	})
}

func (s *Server) submitRegister(c *gin.Context) {
	var in forms.RegisterInput
	s.bindForm(c, "register", &in)

	ctrl := forms.NewController("register", s.validator,
		func(ctx context.Context, in forms.RegisterInput) actions.Result {
			return s.actions.Register(ctx, backend.RegisterRequest{
				Name:            in.Name,
				Email:           in.Email,
				Password:        in.Password,
				ConfirmPassword: in.ConfirmPassword,
			})
		},
		formOptions[forms.RegisterInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		view.Values = forms.RegisterInput{Name: in.Name, Email: in.Email}
		s.render(c, viewStatus(view), "register.html", "Sign up", gin.H{"View": view})
		return
	}

	c.Redirect(http.StatusSeeOther, "/login?notice=registered")
}

func (s *Server) forgotPasswordPage(c *gin.Context) {
	s.render(c, http.StatusOK, "forgot_password.html", "Forgot password", gin.H{
		"View": forms.View{Form: "forgot-password", Values: forms.ForgotPasswordInput{}},
	})
}

func (s *Server) submitForgotPassword(c *gin.Context) {
	var in forms.ForgotPasswordInput
	s.bindForm(c, "forgot-password", &in)

	opts := formOptions[forms.ForgotPasswordInput](s, forms.OnSuccess[forms.ForgotPasswordInput](
		func(res actions.Result, v *forms.View) {
			if s.config.Reset.ExposeLinks && res.Token != "" {
				v.ResetLink = forms.ResetLink(s.config.Server.PublicURL, res.Token)
			}
		},
	))
	ctrl := forms.NewController("forgot-password", s.validator,
		func(ctx context.Context, in forms.ForgotPasswordInput) actions.Result {
			return s.actions.ForgotPassword(ctx, in.Email)
		},
		opts...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	s.render(c, viewStatus(view), "forgot_password.html", "Forgot password", gin.H{"View": view})
}

func (s *Server) resetPasswordPage(c *gin.Context) {
	view := forms.ResetView(c.Query("token"))
	s.render(c, viewStatus(view), "reset_password.html", "Reset password", gin.H{"View": view})
}

func (s *Server) submitResetPassword(c *gin.Context) {
	var in forms.ResetPasswordInput
	s.bindForm(c, "reset-password", &in)

	if view := forms.ResetView(in.Token); view.HideFields {
		s.render(c, viewStatus(view), "reset_password.html", "Reset password", gin.H{"View": view})
		return
	}

	ctrl := forms.NewController("reset-password", s.validator,
		func(ctx context.Context, in forms.ResetPasswordInput) actions.Result {
			return s.actions.ResetPassword(ctx, in.Token, in.Password, in.ConfirmPassword)
		},
		formOptions[forms.ResetPasswordInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		view.Values = forms.ResetPasswordInput{Token: in.Token}
		s.render(c, viewStatus(view), "reset_password.html", "Reset password", gin.H{"View": view})
		return
	}

	c.Redirect(http.StatusSeeOther, "/login?notice=reset")
}

func (s *Server) logout(c *gin.Context) {
	s.actions.Logout(c.Writer, c.Request)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) profilePage(c *gin.Context) {
	sess := GetSession(c)
	s.render(c, http.StatusOK, "profile.html", "Profile", gin.H{
		"View":    forms.View{Form: "profile", Values: forms.ProfileInput{Name: sess.User.Name, Email: sess.User.Email}},
		"Editing": c.Query("edit") != "",
	})
}

func (s *Server) submitProfile(c *gin.Context) {
	sess := GetSession(c)

	var in forms.ProfileInput
	s.bindForm(c, "profile", &in)

	ctrl := forms.NewController("profile", s.validator,
		func(ctx context.Context, in forms.ProfileInput) actions.Result {
			return s.actions.UpdateProfile(ctx, c.Writer, sess, backend.ProfileRequest{Name: in.Name, Email: in.Email})
		},
		formOptions[forms.ProfileInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		s.render(c, viewStatus(view), "profile.html", "Profile", gin.H{"View": view, "Editing": true})
		return
	}

	// The cookies now carry the new profile; render this response from it too
	if user, ok := view.Result.Data.(auth.User); ok {
		sess.User = user
		sess.Role = user.Role
		setSession(c, sess)
		view.Values = forms.ProfileInput{Name: user.Name, Email: user.Email}
	}
	s.render(c, http.StatusOK, "profile.html", "Profile", gin.H{"View": view, "Editing": false})
}
