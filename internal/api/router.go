package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/storage"
)

// Analyzer 单段文本的在线分析
type Analyzer interface {
	Analyze(ctx context.Context, text string) analysis.Result
}

// ArticleLister 分页读取已入库文章
type ArticleLister interface {
	ListArticles(ctx context.Context, limit, offset int) ([]storage.Article, error)
}

type Server struct {
	analyzer Analyzer
	articles ArticleLister
}

func NewServer(analyzer Analyzer, articles ArticleLister) *Server {
	return &Server{analyzer: analyzer, articles: articles}
}

type analyzeRequest struct {
	Text *string `json:"text" binding:"required"`
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/", s.root)
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/analyze", s.analyze)
		v1.GET("/articles", s.listArticles)
	}
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "AI News Aggregator API is running"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body: " + err.Error()})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("api: analyze panic: %v", r)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": fmt.Sprint(r)})
		}
	}()

	// 模型不可用时同样返回 200 和默认结论
	res := s.analyzer.Analyze(c.Request.Context(), *req.Text)
	c.JSON(http.StatusOK, res.Verdict)
}

func (s *Server) listArticles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(storage.DefaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be an integer"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "offset must be an integer"})
		return
	}

	items, err := s.articles.ListArticles(c.Request.Context(), limit, offset)
	if err != nil {
		log.Printf("api: list articles: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Database error: " + err.Error()})
		return
	}
	if items == nil {
		items = []storage.Article{}
	}
	c.JSON(http.StatusOK, items)
}
