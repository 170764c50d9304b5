package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/middleware"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/service"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// CatalogHandler handles per-branch product CRUD HTTP endpoints.
type CatalogHandler struct {
	productService *service.ProductService
	rateLimiter    *middleware.InvalidAuthRateLimiter
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(productService *service.ProductService, rateLimiter *middleware.InvalidAuthRateLimiter) *CatalogHandler {
	return &CatalogHandler{productService: productService, rateLimiter: rateLimiter}
}

// GetCatalog handles GET /api/:sucursal/productos
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	products, err := h.productService.Catalog(c.Request.Context(), c.Param("sucursal"))
	if err != nil {
		h.respondError(c, err, "Failed to retrieve catalog")
		return
	}
	utils.Success(c, 200, "Catalog retrieved", products)
}

// CreateProduct handles POST /api/:sucursal/productos (multipart)
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	in := bindProductInput(c)
	image, err := readImage(c)
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "imagen upload could not be read")
		return
	}

	product, err := h.productService.Create(c.Request.Context(), c.Param("sucursal"), adminKey(c), in, image)
	if err != nil {
		h.respondError(c, err, "Failed to create product")
		return
	}
	utils.Success(c, 201, "Product created successfully", product)
}

// UpdateProduct handles PUT /api/:sucursal/productos/:id (multipart)
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	in := bindProductInput(c)
	image, err := readImage(c)
	if err != nil {
		utils.Error(c, 400, "VALIDATION_ERROR", "imagen upload could not be read")
		return
	}

	product, err := h.productService.Update(c.Request.Context(), c.Param("sucursal"), adminKey(c), c.Param("id"), in, image)
	if err != nil {
		h.respondError(c, err, "Failed to update product")
		return
	}
	utils.Success(c, 200, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /api/:sucursal/productos/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.Delete(c.Request.Context(), c.Param("sucursal"), adminKey(c), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete product")
		return
	}
	utils.Success(c, 200, "Product deleted successfully", nil)
}

// respondError maps service error kinds onto HTTP statuses with the shared
// response envelope. Rejected admin keys also count against the per-IP
// limiter, which answers 429 once an address keeps failing.
func (h *CatalogHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, utils.ErrInvalidBranch):
		utils.Error(c, 400, "INVALID_BRANCH", detail(err))
	case errors.Is(err, utils.ErrValidation):
		utils.Error(c, 400, "VALIDATION_ERROR", detail(err))
	case errors.Is(err, utils.ErrDuplicateCode):
		utils.Error(c, 409, "DUPLICATE_CODE", detail(err))
	case errors.Is(err, utils.ErrNotFound):
		utils.Error(c, 404, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, utils.ErrUnauthorized):
		if h.rateLimiter != nil && !h.rateLimiter.Allow(c.ClientIP()) {
			utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid admin key attempts")
			return
		}
		utils.Error(c, 401, "UNAUTHORIZED", detail(err))
	default:
		utils.Error(c, 500, "STORAGE_ERROR", fallback)
	}
}

// adminKey extracts the shared admin key from X-Admin-Key or a Bearer token.
func adminKey(c *gin.Context) string {
	if k := c.GetHeader("X-Admin-Key"); k != "" {
		return k
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// bindProductInput collects the multipart text fields, tracking which ones
// the client actually submitted so updates can patch partially.
func bindProductInput(c *gin.Context) models.ProductInput {
	var in models.ProductInput
	if v, ok := c.GetPostForm("codigo"); ok {
		in.Codigo = &v
	}
	if v, ok := c.GetPostForm("nombre"); ok {
		in.Nombre = &v
	}
	if v, ok := c.GetPostForm("precio"); ok {
		in.Precio = &v
	}
	if v, ok := c.GetPostForm("categoria"); ok {
		in.Categoria = &v
	}
	if v, ok := c.GetPostForm("oferta"); ok {
		in.Oferta = &v
	}
	if v, ok := c.GetPostForm("precioPromo"); ok {
		in.PrecioPromo = &v
	}
	return in
}

// readImage pulls the optional "imagen" file into memory. A missing file is
// not an error here; the service decides whether one is required.
func readImage(c *gin.Context) (*models.UploadedImage, error) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &models.UploadedImage{Data: data, Name: fh.Filename}, nil
}

// detail returns the text after the sentinel prefix, or the whole error text
// when no prefix is present.
func detail(err error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}
