package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matchpoint-dev/matchpoint/internal/actions"
	"github.com/matchpoint-dev/matchpoint/internal/backend"
	"github.com/matchpoint-dev/matchpoint/internal/forms"
)

const usersPerPage = 5

var adminNotices = map[string]string{
	"created": "User created successfully.",
	"updated": "User updated successfully.",
	"deleted": "User deleted successfully.",
}

// Pagination describes one page of the user table
type Pagination struct {
	Page  int
	Pages int
	Total int
	Prev  int // 0 when on the first page
	Next  int // 0 when on the last page
}

// paginate clamps page into range and returns the slice bounds for it
func paginate(total, page int) (start, end int, p Pagination) {
	pages := (total + usersPerPage - 1) / usersPerPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start = (page - 1) * usersPerPage
	end = min(start+usersPerPage, total)

	p = Pagination{Page: page, Pages: pages, Total: total}
	if page > 1 {
		p.Prev = page - 1
	}
	if page < pages {
		p.Next = page + 1
	}
	return start, end, p
}

func (s *Server) missingUserID(c *gin.Context) {
	view := resultView("user", actions.Result{Message: "Missing user id", Status: http.StatusBadRequest})
	s.render(c, http.StatusBadRequest, "error.html", "Not found", gin.H{"View": view})
}

func (s *Server) listUsersPage(c *gin.Context) {
	res := s.actions.ListUsers(c.Request.Context(), GetSession(c))
	if !res.Success {
		s.render(c, res.Status, "users.html", "Users", gin.H{"View": resultView("users", res)})
		return
	}

	users, _ := res.Data.([]backend.User)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	start, end, pagination := paginate(len(users), page)

	s.render(c, http.StatusOK, "users.html", "Users", gin.H{
		"Users":      users[start:end],
		"Pagination": pagination,
		"Notice":     adminNotices[c.Query("notice")],
	})
}

func (s *Server) userDetailPage(c *gin.Context) {
	id := c.Param("id")
	if !validUserID(id) {
		s.missingUserID(c)
		return
	}

	res := s.actions.GetUser(c.Request.Context(), GetSession(c), id)
	if !res.Success {
		s.render(c, res.Status, "user_detail.html", "User", gin.H{"View": resultView("user", res)})
		return
	}

	s.render(c, http.StatusOK, "user_detail.html", "User", gin.H{
		"User":   res.Data,
		"Notice": adminNotices[c.Query("notice")],
	})
}

func (s *Server) submitDeleteUser(c *gin.Context) {
	id := c.Param("id")
	if !validUserID(id) {
		s.missingUserID(c)
		return
	}

	res := s.actions.DeleteUser(c.Request.Context(), GetSession(c), id)
	if !res.Success {
		s.render(c, res.Status, "user_detail.html", "User", gin.H{"View": resultView("delete-user", res)})
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin/users?notice=deleted")
}

func (s *Server) createUserPage(c *gin.Context) {
	s.render(c, http.StatusOK, "user_form.html", "Create user", gin.H{
		"View":   forms.View{Form: "create-user", Values: forms.CreateUserInput{Role: "user"}},
		"Create": true,
	})
}

func (s *Server) submitCreateUser(c *gin.Context) {
	var in forms.CreateUserInput
	s.bindForm(c, "create-user", &in)
	sess := GetSession(c)

	ctrl := forms.NewController("create-user", s.validator,
		func(ctx context.Context, in forms.CreateUserInput) actions.Result {
			image, closeImage, err := imageUpload(c)
			if err != nil {
				return actions.Result{Message: "Could not read the uploaded image", Details: err.Error(), Status: http.StatusBadRequest}
			}
			defer closeImage()

			return s.actions.CreateUser(ctx, sess, backend.UserForm{
				Name:     in.Name,
				Email:    in.Email,
				Password: in.Password,
				Role:     in.Role,
				Image:    image,
			})
		},
		formOptions[forms.CreateUserInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		in.Password = ""
		view.Values = in
		s.render(c, viewStatus(view), "user_form.html", "Create user", gin.H{"View": view, "Create": true})
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin/users?notice=created")
}

func (s *Server) editUserPage(c *gin.Context) {
	id := c.Param("id")
	if !validUserID(id) {
		s.missingUserID(c)
		return
	}

	res := s.actions.GetUser(c.Request.Context(), GetSession(c), id)
	if !res.Success {
		s.render(c, res.Status, "user_form.html", "Edit user", gin.H{"View": resultView("edit-user", res), "UserID": id})
		return
	}

	user, _ := res.Data.(*backend.User)
	values := forms.EditUserInput{}
	if user != nil {
		values = forms.EditUserInput{Name: user.Name, Email: user.Email, Role: user.Role}
	}
	s.render(c, http.StatusOK, "user_form.html", "Edit user", gin.H{
		"View":   forms.View{Form: "edit-user", Values: values},
		"UserID": id,
		"User":   user,
	})
}

func (s *Server) submitEditUser(c *gin.Context) {
	id := c.Param("id")
	if !validUserID(id) {
		s.missingUserID(c)
		return
	}

	var in forms.EditUserInput
	s.bindForm(c, "edit-user", &in)
	sess := GetSession(c)

	ctrl := forms.NewController("edit-user", s.validator,
		func(ctx context.Context, in forms.EditUserInput) actions.Result {
			image, closeImage, err := imageUpload(c)
			if err != nil {
				return actions.Result{Message: "Could not read the uploaded image", Details: err.Error(), Status: http.StatusBadRequest}
			}
			defer closeImage()

			return s.actions.UpdateUser(ctx, sess, id, backend.UserForm{
				Name:     in.Name,
				Email:    in.Email,
				Password: in.Password,
				Role:     in.Role,
				Image:    image,
			})
		},
		formOptions[forms.EditUserInput](s)...,
	)

	view := ctrl.Submit(c.Request.Context(), formKey(c), in)
	if !view.Succeeded() {
		in.Password = ""
		view.Values = in
		s.render(c, viewStatus(view), "user_form.html", "Edit user", gin.H{"View": view, "UserID": id})
		return
	}

	c.Redirect(http.StatusSeeOther, "/admin/users/"+url.PathEscape(id)+"?notice=updated")
}

// imageUpload returns the optional "image" file of a multipart request
func imageUpload(c *gin.Context) (*backend.Upload, func(), error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &backend.Upload{Filename: header.Filename, Content: f}, func() { f.Close() }, nil
}
