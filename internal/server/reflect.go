package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxEchoBody = 1 << 20

type clientAddr struct {
	Host *string `json:"host"`
	Port *string `json:"port"`
}

func (s *Server) handleInfo(c *gin.Context) {
	cookies := make(map[string]string)
	for _, cookie := range c.Request.Cookies() {
		cookies[cookie.Name] = cookie.Value
	}

	query := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[key] = values[len(values)-1]
		}
	}

	var client clientAddr
	if host, port := splitRemoteAddr(c.Request.RemoteAddr); host != "" {
		client.Host = &host
		if port != "" {
			client.Port = &port
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":    s.timestamp(),
		"client_ip":    ClientIP(c.Request),
		"method":       c.Request.Method,
		"url":          requestURL(c.Request),
		"headers":      flattenHeaders(c.Request.Header),
		"query_params": query,
		"cookies":      cookies,
		"client":       client,
	})
}

func (s *Server) handleIP(c *gin.Context) {
	var clientHost *string
	if host, _ := splitRemoteAddr(c.Request.RemoteAddr); host != "" {
		clientHost = &host
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":     s.timestamp(),
		"client_ip":     ClientIP(c.Request),
		"real_ip":       optionalHeader(c.Request, "X-Real-IP"),
		"forwarded_for": optionalHeader(c.Request, "X-Forwarded-For"),
		"forwarded":     optionalHeader(c.Request, "X-Forwarded"),
		"client_host":   clientHost,
	})
}

func (s *Server) handleHeaders(c *gin.Context) {
	headers := flattenHeaders(c.Request.Header)
	c.JSON(http.StatusOK, gin.H{
		"timestamp":     s.timestamp(),
		"headers":       headers,
		"total_headers": len(headers),
	})
}

func (s *Server) handleUserAgent(c *gin.Context) {
	userAgent := c.GetHeader("User-Agent")
	if userAgent == "" {
		userAgent = "Unknown"
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":   s.timestamp(),
		"user_agent":  userAgent,
		"parsed_info": ParseUserAgent(userAgent),
	})
}

func (s *Server) handleEcho(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEchoBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}

	contentType := c.GetHeader("Content-Type")
	data := gin.H{}
	if strings.Contains(contentType, "application/json") {
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			abortWithError(c, http.StatusBadRequest, "failed to parse request body: "+err.Error())
			return
		}
		data["json_data"] = payload
	} else {
		data["raw_data"] = string(body)
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":      s.timestamp(),
		"method":         c.Request.Method,
		"content_type":   contentType,
		"content_length": len(body),
		"data":           data,
		"headers":        flattenHeaders(c.Request.Header),
	})
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func optionalHeader(r *http.Request, name string) *string {
	value := r.Header.Get(name)
	if value == "" {
		return nil
	}
	return &value
}
