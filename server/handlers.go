package server

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/esimov/avatar"
	"github.com/esimov/avatar/generator"
	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/validation"
	"github.com/gin-gonic/gin"
)

type checkResponse struct {
	Hash     string `json:"hash"`
	Status   string `json:"status"`
	MimeType string `json:"mime_type,omitempty"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// icon streams the generated icon: GET /avatar/<hash>[.ext]?s=<size>&d=<kind>
func (s *Server) icon(c *gin.Context) {
	raw := c.Param("hash")
	h, err := identity.Parse(strings.TrimSuffix(raw, path.Ext(raw)))
	if err != nil {
		s.fail(c, err)
		return
	}
	size, err := s.size(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	g, err := s.svc.Generator(generator.Kind(c.Query("d")))
	if err != nil {
		s.fail(c, err)
		return
	}

	data, err := g.Build(h, size)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, g.MimeType(), data)
}

// resolve answers which avatar to display:
// GET /resolve?email=<addr>|hash=<hash>&s=<size>&d=<kind>&remote=1&age=<duration>
func (s *Server) resolve(c *gin.Context) {
	size, err := s.size(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	age, err := parseAge(c.Query("age"))
	if err != nil {
		s.fail(c, err)
		return
	}
	remote, _ := strconv.ParseBool(c.DefaultQuery("remote", "false"))

	req := avatar.Request{
		Email:     c.Query("email"),
		Size:      size,
		Kind:      generator.Kind(c.Query("d")),
		UseRemote: remote,
		Age:       age,
	}
	if raw := c.Query("hash"); raw != "" {
		h, err := identity.Parse(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		req.Hash = h
	}

	av, err := s.svc.Resolve(c.Request.Context(), validation.NewMemo(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

// check reports the remote existence status: GET /check/<hash>?age=<duration>
func (s *Server) check(c *gin.Context) {
	h, err := identity.Parse(c.Param("hash"))
	if err != nil {
		s.fail(c, err)
		return
	}
	age, err := parseAge(c.Query("age"))
	if err != nil {
		s.fail(c, err)
		return
	}

	r := s.svc.Check(c.Request.Context(), validation.NewMemo(), h, age)
	c.JSON(http.StatusOK, checkResponse{
		Hash:     string(h),
		Status:   r.Status.String(),
		MimeType: r.MimeType,
	})
}

func (s *Server) size(c *gin.Context) (int, error) {
	raw := c.Query("s")
	if raw == "" {
		return s.defaultSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size <= 0 || size > generator.MaxSize {
		return 0, fmt.Errorf("%w: %q", generator.ErrInvalidSize, raw)
	}
	return size, nil
}

var errInvalidAge = errors.New("invalid age")

// parseAge accepts a Go duration ("36h") or a number of seconds.
func parseAge(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidAge, raw)
	}
	return d, nil
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, identity.ErrInvalidHash),
		errors.Is(err, generator.ErrInvalidSize),
		errors.Is(err, generator.ErrInvalidSeed),
		errors.Is(err, generator.ErrUnknownKind),
		errors.Is(err, avatar.ErrNoIdentity),
		errors.Is(err, errInvalidAge):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
