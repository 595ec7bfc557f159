package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/chatdocs/chatdocs/internal/domain"
	"github.com/chatdocs/chatdocs/internal/service"
)

const (
	uploadFailedMsg      = "文件上传失败，请重新上传"
	batchUploadFailedMsg = "文件未成功加载，请重新上传文件"
)

// KnowledgeHandler handles knowledge base document requests
type KnowledgeHandler struct {
	knowledgeService *service.KnowledgeService
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// RegisterRoutes registers knowledge base routes
func (h *KnowledgeHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", h.Upload)
	r.POST("/uploadone", h.UploadOne)
	r.GET("/list", h.List)
	r.DELETE("/delete", h.Delete)
}

// Upload handles a multi-file upload into a knowledge base.
func (h *KnowledgeHandler) Upload(c *gin.Context) {
	knowledgeBaseID := c.PostForm("knowledge_base_id")
	if knowledgeBaseID == "" {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "knowledge_base_id is required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "files are required"})
		return
	}

	var files []service.UploadFile
	for _, header := range form.File["files"] {
		data, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: batchUploadFailedMsg})
			return
		}
		files = append(files, service.UploadFile{Name: header.Filename, Data: data})
	}

	msg, err := h.knowledgeService.UploadMany(c.Request.Context(), knowledgeBaseID, files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: batchUploadFailedMsg})
		return
	}
	c.JSON(http.StatusOK, success(msg))
}

// UploadOne handles a single-file upload into a knowledge base.
func (h *KnowledgeHandler) UploadOne(c *gin.Context) {
	knowledgeBaseID := c.PostForm("knowledge_base_id")
	if knowledgeBaseID == "" {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "knowledge_base_id is required"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "file is required"})
		return
	}
	data, err := readUpload(header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: uploadFailedMsg})
		return
	}

	msg, err := h.knowledgeService.UploadOne(c.Request.Context(), knowledgeBaseID,
		service.UploadFile{Name: header.Filename, Data: data})
	if err != nil {
		c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: uploadFailedMsg})
		return
	}
	c.JSON(http.StatusOK, success(msg))
}

// List returns document names for a knowledge base, or all knowledge base
// ids when no id is given.
func (h *KnowledgeHandler) List(c *gin.Context) {
	knowledgeBaseID := c.Query("knowledge_base_id")

	data, err := h.knowledgeService.List(knowledgeBaseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, notFound(fmt.Sprintf("Knowledge base %s not found", knowledgeBaseID)))
			return
		}
		c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse{BaseResponse: success(""), Data: data})
}

// Delete removes one document or the whole knowledge base.
func (h *KnowledgeHandler) Delete(c *gin.Context) {
	// net/http only parses form bodies for POST/PUT/PATCH, so read the
	// DELETE body explicitly.
	form, err := deleteForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "invalid form body"})
		return
	}
	knowledgeBaseID := form.Get("knowledge_base_id")
	if knowledgeBaseID == "" {
		c.JSON(http.StatusBadRequest, BaseResponse{Code: 400, Msg: "knowledge_base_id is required"})
		return
	}
	docName := form.Get("doc_name")

	if err := h.knowledgeService.Delete(c.Request.Context(), knowledgeBaseID, docName); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, notFound(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, BaseResponse{Code: 500, Msg: err.Error()})
		return
	}

	c.JSON(http.StatusOK, success(""))
}

func deleteForm(c *gin.Context) (url.Values, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, err
	}
	// fall back to query parameters for clients that cannot send a body
	for key, vals := range c.Request.URL.Query() {
		if values.Get(key) == "" {
			values[key] = vals
		}
	}
	return values, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}
