package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"elit21.com/shop/internal/http/middleware"
	"elit21.com/shop/internal/modules/products"
	"elit21.com/shop/internal/shared/apperr"
	"elit21.com/shop/internal/shared/money"
	"elit21.com/shop/internal/storage"
)

const maxImageBytes = 8 << 20

type ProductsHandler struct {
	Repo   *products.Repo
	Images storage.Storage
}

func NewProductsHandler(repo *products.Repo, images storage.Storage) *ProductsHandler {
	return &ProductsHandler{Repo: repo, Images: images}
}

func (h *ProductsHandler) List(c *gin.Context) {
	items, err := h.Repo.ListActive(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, p := range items {
		out = append(out, gin.H{
			"id":       p.ID,
			"name":     p.Name,
			"price":    money.FormatCents(p.PriceCents),
			"currency": p.Currency,
			"stock":    p.Stock,
		})
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *ProductsHandler) Detail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	}

	ctx := c.Request.Context()
	p, err := h.Repo.Get(ctx, id)
	if errors.Is(err, products.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	variants, err := h.Repo.Variants(ctx, id)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	images, err := h.Repo.Images(ctx, id)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	vs := make([]gin.H, 0, len(variants))
	for _, v := range variants {
		vs = append(vs, gin.H{"color": v.Color, "size": v.Size, "quantity": v.Quantity})
	}
	imgs := make([]gin.H, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, gin.H{"id": img.ID, "url": img.URL, "mime_type": img.MimeType})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       money.FormatCents(p.PriceCents),
		"currency":    p.Currency,
		"status":      p.Status,
		"variants":    vs,
		"images":      imgs,
	})
}

// UploadImage stores a product photo through the configured storage
// driver (local disk or S3) and records it on the product. Admin only.
func (h *ProductsHandler) UploadImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	}
	ctx := c.Request.Context()

	if _, err := h.Repo.Get(ctx, id); errors.Is(err, products.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Product not found."))
		return
	} else if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("An image file is required.", nil))
		return
	}
	if fh.Size > maxImageBytes {
		middleware.Fail(c, apperr.InvalidErr("Image is too large.", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	res, err := h.Images.Put(ctx, f, storage.PutInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	})
	if errors.Is(err, storage.ErrUnsupportedImage) {
		middleware.Fail(c, apperr.InvalidErr("Only PNG, JPEG, WebP or GIF images are accepted.", nil))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	existing, err := h.Repo.Images(ctx, id)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	img, err := h.Repo.AddImage(ctx, products.Image{
		ProductID:  id,
		StorageKey: res.Key,
		URL:        res.URL,
		MimeType:   fh.Header.Get("Content-Type"),
		Position:   len(existing),
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": img.ID, "url": img.URL})
}

func (h *ProductsHandler) DeleteImage(c *gin.Context) {
	productID, err1 := strconv.ParseUint(c.Param("id"), 10, 64)
	imageID, err2 := strconv.ParseUint(c.Param("imageID"), 10, 64)
	if err1 != nil || err2 != nil {
		middleware.Fail(c, apperr.NotFoundErr("Image not found."))
		return
	}
	ctx := c.Request.Context()

	img, err := h.Repo.DeleteImage(ctx, productID, imageID)
	if errors.Is(err, products.ErrNotFound) {
		middleware.Fail(c, apperr.NotFoundErr("Image not found."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	// record is gone; a dangling blob is harmless
	_ = h.Images.Delete(ctx, img.StorageKey)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
