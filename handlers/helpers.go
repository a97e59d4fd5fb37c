package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dine-in-ordering/middleware"
	"dine-in-ordering/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// serverError logs err and answers 500 with msg.
func serverError(c *gin.Context, msg string, err error) {
	zap.L().Error(msg, zap.Error(err), zap.String("path", c.Request.URL.Path))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"error": msg})
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}

// noPage reports whether the caller asked for an unpaginated list.
func noPage(c *gin.Context) bool {
	v := c.Query("nopage")
	return v == "1" || v == "true"
}

// paginate runs query for the requested page and builds the list envelope
// with next/previous links. query must carry a Model for the count;
// preloads are applied to the page fetch only.
func paginate[T any](c *gin.Context, query *gorm.DB, preloads ...string) (models.Page[T], error) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return models.Page[T]{}, err
	}
	results := []T{}
	if err := withPreloads(query, preloads).Offset((page - 1) * size).Limit(size).Find(&results).Error; err != nil {
		return models.Page[T]{}, err
	}

	out := models.Page[T]{Count: count, Results: results}
	if int64(page*size) < count {
		out.Next = pageLink(c, page+1)
	}
	if page > 1 {
		out.Previous = pageLink(c, page-1)
	}
	return out, nil
}

func pageLink(c *gin.Context, page int) *string {
	u := url.URL{Path: c.Request.URL.Path}
	q := c.Request.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}

// listOrPage answers either the full list (?nopage=1) or one page.
func listOrPage[T any](c *gin.Context, query *gorm.DB, preloads ...string) {
	if noPage(c) {
		results := []T{}
		if err := withPreloads(query, preloads).Find(&results).Error; err != nil {
			serverError(c, "Failed to load records", err)
			return
		}
		c.JSON(http.StatusOK, results)
		return
	}
	page, err := paginate[T](c, query, preloads...)
	if err != nil {
		serverError(c, "Failed to load records", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func withPreloads(query *gorm.DB, preloads []string) *gorm.DB {
	for _, p := range preloads {
		query = query.Preload(p)
	}
	return query
}

func isAdmin(c *gin.Context) bool {
	return middleware.GetUserType(c) == models.UserAdmin
}

// fitCode upper-cases s, drops spaces and cuts or pads it with X to exactly n
// characters.
func fitCode(s string, n int) string {
	r := []rune(strings.ToUpper(strings.ReplaceAll(s, " ", "")))
	if len(r) > n {
		return string(r[:n])
	}
	return string(r) + strings.Repeat("X", n-len(r))
}
