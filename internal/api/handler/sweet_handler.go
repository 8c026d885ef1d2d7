package handler

import (
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweets-api/internal/core/domain"
	"github.com/sweetshop/sweets-api/internal/core/ports"
)

const (
	// MaxImages is the per-request cap on uploaded images.
	MaxImages = 10

	imagesField          = "images"
	headerIdempotencyKey = "Idempotency-Key"
)

type SweetHandler struct {
	service ports.CatalogService
}

func NewSweetHandler(service ports.CatalogService) *SweetHandler {
	return &SweetHandler{service: service}
}

// Create adds a sweet to the catalog.
//
// @Summary      Add a sweet
// @Description  Accepts JSON, or multipart/form-data with up to 10 files in the "images" field.
// @Tags         sweets
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        body    body      sweetRequest  false  "Sweet fields (JSON)"
// @Param        images  formData  file          false  "Images (multipart)"
// @Success      201     {object}  sweetResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	req, images, err := bindSweet(c)
	if err != nil {
		return err
	}

	in := ports.CreateSweetInput{
		Price:    req.Price,
		Quantity: req.Quantity,
		Images:   images,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Category != nil {
		in.Category = *req.Category
	}

	sweet, err := h.service.Add(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSweetResponse(sweet))
}

// ListHomepage returns up to eight of the newest in-stock sweets.
//
// @Summary      Storefront listing
// @Tags         sweets
// @Produce      json
// @Success      200  {array}   sweetResponse
// @Failure      500  {object}  errorResponse
// @Router       /sweets/home [get]
func (h *SweetHandler) ListHomepage(c echo.Context) error {
	sweets, err := h.service.ListHomepage(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponses(sweets))
}

// List returns the whole catalog.
//
// @Summary      List sweets
// @Tags         sweets
// @Produce      json
// @Success      200  {array}   sweetResponse
// @Failure      500  {object}  errorResponse
// @Router       /sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	sweets, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponses(sweets))
}

// Search filters the catalog by name, category and price range.
//
// @Summary      Search sweets
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        name      query     string  false  "Case-insensitive substring of the name"
// @Param        category  query     string  false  "Case-insensitive substring of the category"
// @Param        minPrice  query     number  false  "Inclusive lower price bound"
// @Param        maxPrice  query     number  false  "Inclusive upper price bound"
// @Success      200       {array}   sweetResponse
// @Failure      400       {object}  errorResponse
// @Failure      401       {object}  errorResponse
// @Failure      500       {object}  errorResponse
// @Router       /sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	var q searchQuery
	if err := c.Bind(&q); err != nil {
		return invalidBody(err)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	minPrice, err := optionalFloat(q.MinPrice, "minPrice")
	if err != nil {
		return err
	}
	maxPrice, err := optionalFloat(q.MaxPrice, "maxPrice")
	if err != nil {
		return err
	}

	sweets, err := h.service.Search(c.Request().Context(), ports.SearchSweetsInput{
		Name:     q.Name,
		Category: q.Category,
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponses(sweets))
}

// Update applies a partial update. Uploaded images replace the existing ones.
//
// @Summary      Update a sweet
// @Tags         sweets
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string        true   "Sweet id"
// @Param        body    body      sweetRequest  false  "Fields to change (JSON)"
// @Param        images  formData  file          false  "Replacement images (multipart)"
// @Success      200     {object}  sweetResponse
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	req, images, err := bindSweet(c)
	if err != nil {
		return err
	}

	sweet, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdateSweetInput{
		Patch: domain.SweetPatch{
			Name:     req.Name,
			Category: req.Category,
			Price:    req.Price,
			Quantity: req.Quantity,
		},
		Images: images,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetResponse(sweet))
}

// Delete removes a sweet. Admin only.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sweet id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Sweet deleted successfully"})
}

// Purchase buys units of a sweet. A missing, zero or non-numeric quantity
// buys one unit.
//
// @Summary      Purchase a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string           true   "Sweet id"
// @Param        Idempotency-Key  header    string           false  "Client key; a repeated key replays the first result"
// @Param        body             body      purchaseRequest  false  "Quantity to buy"
// @Success      200              {object}  stockResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}

	sweet, err := h.service.Purchase(c.Request().Context(), ports.PurchaseInput{
		SweetID:        c.Param("id"),
		Quantity:       purchaseQuantity(req.Quantity),
		UserID:         userID,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey)),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stockResponse{Message: "Purchase successful", Sweet: toSweetResponse(sweet)})
}

// Restock adds units to a sweet. Admin only.
//
// @Summary      Restock a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Sweet id"
// @Param        body  body      restockRequest  true  "Units to add"
// @Success      200   {object}  stockResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req restockRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}

	amount := restockAmount(req.Amount)
	sweet, err := h.service.Restock(c.Request().Context(), ports.RestockInput{
		SweetID: c.Param("id"),
		Amount:  amount,
		UserID:  userID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stockResponse{
		Message: fmt.Sprintf("Restocked with %d units", *amount),
		Sweet:   toSweetResponse(sweet),
	})
}

// --- binding helpers ---

// bindSweet reads the sweet fields and images from a multipart form or a
// JSON body.
func bindSweet(c echo.Context) (sweetRequest, []ports.MediaFile, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var req sweetRequest
		if err := c.Bind(&req); err != nil {
			return req, nil, invalidBody(err)
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return sweetRequest{}, nil, invalidBody(err)
	}
	req, err := sweetFromForm(form.Value)
	if err != nil {
		return req, nil, err
	}
	upload := imageUpload{Images: form.File[imagesField]}
	if err := c.Validate(&upload); err != nil {
		return req, nil, err
	}
	images, err := readImages(upload.Images)
	if err != nil {
		return req, nil, err
	}
	return req, images, nil
}

func sweetFromForm(values map[string][]string) (sweetRequest, error) {
	var req sweetRequest
	get := func(key string) (string, bool) {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	if v, ok := get("name"); ok {
		req.Name = &v
	}
	if v, ok := get("category"); ok {
		req.Category = &v
	}
	if v, ok := get("price"); ok && strings.TrimSpace(v) != "" {
		price, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			return req, domain.NewError(domain.ErrValidation, "Price must be a number")
		}
		req.Price = &price
	}
	if v, ok := get("quantity"); ok && strings.TrimSpace(v) != "" {
		qty, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return req, domain.NewError(domain.ErrValidation, "Quantity must be a whole number")
		}
		req.Quantity = &qty
	}
	return req, nil
}

func readImages(headers []*multipart.FileHeader) ([]ports.MediaFile, error) {
	files := make([]ports.MediaFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, invalidBody(err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, invalidBody(err)
		}
		files = append(files, ports.MediaFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}
	return files, nil
}

func optionalFloat(raw, field string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, domain.NewError(domain.ErrValidation, field+" must be a number")
	}
	return &v, nil
}

// numeric converts a decoded JSON value to a number. ok is false for values
// that do not read as a number.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// purchaseQuantity resolves the requested amount. Absent, zero and
// non-numeric values mean one unit; a negative or fractional amount maps to
// a non-positive value the service rejects. Amounts past MaxInt32 are clamped
// so they fail as insufficient stock.
func purchaseQuantity(v any) int {
	n, ok := numeric(v)
	if !ok || n == 0 {
		return 1
	}
	if n < 0 || n != math.Trunc(n) {
		return -1
	}
	return int(min(n, math.MaxInt32))
}

// restockAmount returns nil unless v is a positive whole number; the service
// reports nil as an invalid amount.
func restockAmount(v any) *int {
	n, ok := numeric(v)
	if !ok || n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return nil
	}
	amount := int(n)
	return &amount
}
