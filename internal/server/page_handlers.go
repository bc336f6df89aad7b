package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) homePage(c *gin.Context) {
	s.render(c, http.StatusOK, "home.html", "Book your court", nil)
}

func (s *Server) aboutPage(c *gin.Context) {
	s.render(c, http.StatusOK, "about.html", "About", nil)
}
