package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"theneighbor/api/internal/media/sniffer"
	"theneighbor/api/internal/middleware"
	"theneighbor/api/internal/models"
	"theneighbor/api/internal/service"
)

// Room for the text fields and multipart framing on top of the photo.
const formOverheadBytes = 1 << 20

type memberResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	FirstName        *string   `json:"firstname"`
	LastName         *string   `json:"lastname"`
	Email            string    `json:"email"`
	Location         *string   `json:"location"`
	Activity         *string   `json:"activity"`
	ImageURL         *string   `json:"image_url"`
	OriginalImageURL *string   `json:"original_image_url"`
	CreatedAt        time.Time `json:"created_at"`
}

type imageResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

type submitResponse struct {
	OK    bool           `json:"ok"`
	Image *imageResponse `json:"image,omitempty"`
}

func (h HandlerSet) SubmitMember(c *gin.Context) {
	maxBytes := h.cfg.HTTP.MaxUploadBytes
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+formOverheadBytes)
	}

	photo, err := h.readPhoto(c, maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", maxBytes)})
			return
		}
		h.log.Warn().Err(err).Msg("unreadable submission form")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), service.SubmissionInput{
		Name:      c.PostForm("name"),
		FirstName: c.PostForm("firstname"),
		LastName:  c.PostForm("lastname"),
		Email:     c.PostForm("email"),
		Location:  c.PostForm("location"),
		Activity:  c.PostForm("activity"),
		Photo:     photo,
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		_ = c.Error(err)
		h.log.Error().Err(err).Str("email", c.PostForm("email")).Msg("submission failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.Set(middleware.MemberIDKey, result.Member.ID)
	resp := submitResponse{OK: true}
	if result.Image != nil {
		c.Set(middleware.ImageStatusKey, string(result.Image.Status))
		resp.Image = &imageResponse{
			Status: string(result.Image.Status),
			URL:    result.Image.URL,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// readPhoto returns nil when the form carries no image part. The photo is
// read up to one byte past the limit so the size check can reject it.
func (h HandlerSet) readPhoto(c *gin.Context, maxBytes int64) (*service.Photo, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return &service.Photo{
		Data:         data,
		Filename:     header.Filename,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	}, nil
}

func (h HandlerSet) ListCommunity(c *gin.Context) {
	members, err := h.listing.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		h.log.Error().Err(err).Msg("community listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		return
	}

	c.JSON(http.StatusOK, toMemberResponses(members))
}

func toMemberResponses(members []models.Member) []memberResponse {
	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse{
			ID:               m.ID,
			Name:             m.Name,
			FirstName:        m.FirstName,
			LastName:         m.LastName,
			Email:            m.Email,
			Location:         m.Location,
			Activity:         m.Activity,
			ImageURL:         m.ImageURL,
			OriginalImageURL: m.OriginalImageURL,
			CreatedAt:        m.CreatedAt,
		})
	}
	return resp
}
