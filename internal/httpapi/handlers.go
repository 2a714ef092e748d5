package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/ironsheep/image-insight/internal/annotate"
	"github.com/ironsheep/image-insight/internal/imaging"
	"github.com/ironsheep/image-insight/internal/pipeline"
)

// FormFieldImage is the multipart field carrying the upload.
const FormFieldImage = "image"

// MsgNoImage is the error body for a request without an upload.
const MsgNoImage = "No image uploaded"

// ErrNoImage is returned when the request carries no image file.
var ErrNoImage = errors.New("no image uploaded")

// ErrTooLarge is returned when the upload exceeds the configured limit.
var ErrTooLarge = errors.New("image too large")

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer       *pipeline.Analyzer
	maxUploadBytes int64
}

func NewHandler(analyzer *pipeline.Analyzer, maxUploadBytes int64) *Handler {
	return &Handler{analyzer: analyzer, maxUploadBytes: maxUploadBytes}
}

// Analyze returns the handler for one mode.
//
// Responses are 400 when there is no image, 413 when it is too large, 500
// when it cannot be decoded, and 200 otherwise, including when some stages
// failed.
func (h *Handler) Analyze(mode pipeline.Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := log.FromContext(ctx)

		img, err := h.readImage(c)
		switch {
		case errors.Is(err, ErrNoImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": MsgNoImage})
			return
		case errors.Is(err, ErrTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("Image exceeds %d bytes", h.maxUploadBytes)})
			return
		case err != nil:
			logger.WithError(err).Error("Error during processing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Server error: %v", err)})
			return
		}

		logger.WithFields(log.Fields{
			"width":  img.Width(),
			"height": img.Height(),
		}).Debug("image decoded")

		analysis := h.analyzer.Analyze(ctx, mode, img)
		resp := analysis.Response

		if wantAnnotation(c) {
			encoded, err := annotate.EncodeBase64(img, analysis.Detection.Value)
			if err != nil {
				logger.WithError(err).Warn("annotation failed")
			} else {
				resp.AnnotatedImage = encoded
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

// readImage pulls the upload out of the multipart form and normalizes it.
func (h *Handler) readImage(c *gin.Context) (*imaging.RGB, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile(FormFieldImage)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrNoImage, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	return imaging.Decode(f)
}

func wantAnnotation(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("annotate", "false"))
	return err == nil && v
}
