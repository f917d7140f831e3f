package handler

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/kanban/internal/domain/kanban"
	"github.com/erp/kanban/internal/infrastructure/logger"
	"github.com/erp/kanban/internal/infrastructure/storage"
	"github.com/erp/kanban/internal/interfaces/http/dto"
	"github.com/erp/kanban/internal/interfaces/http/router"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// FormAttachmentName is the download name used by the form endpoint
const FormAttachmentName = "kanban_cards.pdf"

// Response headers describing a generated document
const (
	HeaderRunID   = "X-Kanban-Run-ID"
	HeaderPages   = "X-Kanban-Pages"
	HeaderSkipped = "X-Kanban-Skipped"
)

// CardGenerator produces kanban card documents
type CardGenerator interface {
	Generate(ctx context.Context, itemCodes []string) (*kanban.GeneratedDocument, error)
	GenerateFromText(ctx context.Context, raw string) (*kanban.GeneratedDocument, error)
}

// KanbanHandler serves the card form and the card generation API
type KanbanHandler struct {
	BaseHandler
	generator CardGenerator
	store     storage.DocumentStore
}

// NewKanbanHandler creates a KanbanHandler. store may be nil, in which case
// the document endpoints answer with ErrCodeStorageDisabled.
func NewKanbanHandler(generator CardGenerator, store storage.DocumentStore) *KanbanHandler {
	return &KanbanHandler{
		generator: generator,
		store:     store,
	}
}

// Index renders the item code form
func (h *KanbanHandler) Index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := indexTemplate.Execute(c.Writer, gin.H{
		"Title":  "Kanban Cards",
		"Action": "/create_kanban_cards",
	})
	if err != nil {
		logger.L(c.Request.Context()).Error("Failed to render index page", zap.Error(err))
	}
}

// CreateCardsForm generates cards from the form textarea and returns the PDF
func (h *KanbanHandler) CreateCardsForm(c *gin.Context) {
	var form dto.CreateCardsForm
	if err := c.ShouldBind(&form); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.generator.GenerateFromText(c.Request.Context(), form.ItemCodes)
	if err != nil {
		h.generationFailed(c, err)
		return
	}

	h.attach(c, doc, FormAttachmentName)
}

// CreateCards generates cards from a JSON list of item codes. With
// ?format=json the document metadata is returned instead of the PDF.
func (h *KanbanHandler) CreateCards(c *gin.Context) {
	var query dto.CreateCardsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	var req dto.CreateCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.generator.Generate(c.Request.Context(), req.ItemCodes)
	if err != nil {
		h.generationFailed(c, err)
		return
	}

	if query.Format == "json" {
		h.Created(c, toDocumentResponse(doc))
		return
	}
	h.attach(c, doc, doc.Name)
}

// GetDocument downloads a stored document
func (h *KanbanHandler) GetDocument(c *gin.Context) {
	if h.store == nil {
		h.ErrorWithCode(c, dto.ErrCodeStorageDisabled, "Document storage is disabled")
		return
	}

	name := c.Param("name")
	rc, err := h.store.Get(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, kanban.DocumentContentType, rc, map[string]string{
		"Content-Disposition": contentDisposition(name),
	})
}

// DeleteDocument removes a stored document
func (h *KanbanHandler) DeleteDocument(c *gin.Context) {
	if h.store == nil {
		h.ErrorWithCode(c, dto.ErrCodeStorageDisabled, "Document storage is disabled")
		return
	}

	if err := h.store.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *KanbanHandler) generationFailed(c *gin.Context, err error) {
	logger.L(c.Request.Context()).Error("Kanban card generation failed", zap.Error(err))
	h.HandleError(c, err)
}

func (h *KanbanHandler) attach(c *gin.Context, doc *kanban.GeneratedDocument, filename string) {
	c.Header("Content-Disposition", contentDisposition(filename))
	c.Header(HeaderRunID, doc.RunID)
	c.Header(HeaderPages, strconv.Itoa(doc.PageCount))
	c.Header(HeaderSkipped, strconv.Itoa(len(doc.Skipped)))
	c.Data(http.StatusOK, kanban.DocumentContentType, doc.Data)
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}

func toDocumentResponse(doc *kanban.GeneratedDocument) dto.GeneratedDocumentResponse {
	skipped := doc.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return dto.GeneratedDocumentResponse{
		RunID:       doc.RunID,
		Name:        doc.Name,
		PageCount:   doc.PageCount,
		Size:        doc.Size(),
		Location:    doc.Location,
		Skipped:     skipped,
		GeneratedAt: doc.GeneratedAt,
	}
}

// KanbanRoutes creates the API route group for card generation
func KanbanRoutes(h *KanbanHandler) *router.DomainGroup {
	group := router.NewDomainGroup("/kanban")
	group.POST("/cards", h.CreateCards)
	group.GET("/documents/:name", h.GetDocument)
	group.DELETE("/documents/:name", h.DeleteDocument)
	return group
}

// WebRoutes creates the root route group for the browser form
func WebRoutes(h *KanbanHandler) *router.DomainGroup {
	group := router.NewDomainGroup("")
	group.GET("/", h.Index)
	group.POST("/create_kanban_cards", h.CreateCardsForm)
	return group
}
