package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"theneighbor/api/internal/config"
	"theneighbor/api/internal/imagegen"
	"theneighbor/api/internal/media/sniffer"
	"theneighbor/api/internal/metrics"
	"theneighbor/api/internal/models"
	"theneighbor/api/internal/storage"
)

type ImageGenerator interface {
	Generate(ctx context.Context, req imagegen.Request) ([]byte, error)
}

type BlobWriter interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

type MemberWriter interface {
	Create(ctx context.Context, member models.Member) (models.Member, error)
}

type ListingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Photo struct {
	Data         []byte
	Filename     string
	DeclaredType string
}

type SubmissionInput struct {
	Name      string
	FirstName string
	LastName  string
	Email     string
	Location  string
	Activity  string
	Photo     *Photo
}

type ImageStatus string

const (
	ImageGenerated    ImageStatus = "generated"
	ImageOriginalOnly ImageStatus = "original_only"
	ImageFailed       ImageStatus = "failed"
)

type ImageResult struct {
	Status ImageStatus
	URL    string
}

type SubmissionResult struct {
	Member models.Member
	Image  *ImageResult
}

type SubmissionService struct {
	generator ImageGenerator
	blobs     BlobWriter
	members   MemberWriter
	listing   ListingInvalidator
	cfg       *config.AppConfig
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewSubmissionService(
	generator ImageGenerator,
	blobs BlobWriter,
	members MemberWriter,
	listing ListingInvalidator,
	cfg *config.AppConfig,
	metrics *metrics.Metrics,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		generator: generator,
		blobs:     blobs,
		members:   members,
		listing:   listing,
		cfg:       cfg,
		metrics:   metrics,
		log:       log,
	}
}

type validatedPhoto struct {
	data     []byte
	filename string
	declared string
	format   sniffer.Result
}

// Submit runs validate → store original → generate → store generated →
// insert, strictly in that order. Only validation and the insert can fail
// the request; every image stage degrades to a null URL instead.
func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (SubmissionResult, error) {
	member, slug, photo, err := validate(input, s.cfg.HTTP.MaxUploadBytes)
	if err != nil {
		s.metrics.ObserveStage("validate", string(StageFatal))
		s.log.Warn().Err(err).Str("email", strings.TrimSpace(input.Email)).Msg("submission rejected")
		return SubmissionResult{}, err
	}
	s.metrics.ObserveStage("validate", string(StageOK))

	member.ID = ksuid.New().String()
	logger := s.log.With().
		Str("member_id", member.ID).
		Str("slug", slug).
		Str("email", member.Email).
		Logger()

	var image *ImageResult
	if photo != nil {
		logger.Info().
			Str("filename", photo.filename).
			Str("media_type", photo.format.MIME).
			Str("declared_type", photo.declared).
			Int("size_bytes", len(photo.data)).
			Msg("photo received")

		original := s.storeOriginal(ctx, logger, slug, photo)
		generated := s.generate(ctx, logger, photo, member.Activity)

		stored := skipped[string]()
		if generated.Status == StageOK {
			stored = s.storeGenerated(ctx, logger, slug, generated.Value)
		}

		member.OriginalImageURL = urlOf(original)
		member.ImageURL = urlOf(stored)
		image = imageResult(original, stored)
	}

	record := s.writeRecord(ctx, logger, member)
	if record.Status == StageFatal {
		return SubmissionResult{}, record.Err
	}

	if s.listing != nil {
		if err := s.listing.Invalidate(ctx); err != nil {
			logger.Warn().Err(err).Msg("listing cache invalidation failed")
		}
	}

	logger.Info().
		Bool("has_image", record.Value.ImageURL != nil).
		Bool("has_original", record.Value.OriginalImageURL != nil).
		Msg("member submitted")

	return SubmissionResult{Member: record.Value, Image: image}, nil
}

func (s *SubmissionService) storeOriginal(ctx context.Context, logger zerolog.Logger, slug string, photo *validatedPhoto) Outcome[string] {
	objectPath := storage.ObjectPath(s.cfg.Storage.OriginalPrefix, slug, photo.format.Ext)
	return s.put(ctx, logger, "store_original", objectPath, photo.data, photo.format.MIME)
}

func (s *SubmissionService) storeGenerated(ctx context.Context, logger zerolog.Logger, slug string, data []byte) Outcome[string] {
	format, err := sniffer.DetectHead(data)
	if err != nil {
		format = sniffer.Result{Type: sniffer.TypePNG, MIME: "image/png", Ext: ".png"}
	}
	objectPath := storage.ObjectPath(s.cfg.Storage.GeneratedPrefix, slug, format.Ext)
	return s.put(ctx, logger, "store_generated", objectPath, data, format.MIME)
}

func (s *SubmissionService) put(ctx context.Context, logger zerolog.Logger, stage, objectPath string, data []byte, contentType string) Outcome[string] {
	publicURL, err := s.blobs.Put(ctx, objectPath, data, contentType)
	if err != nil {
		s.metrics.ObserveStage(stage, string(StageDegraded))
		logger.Error().Err(err).
			Str("stage", stage).
			Str("object_path", objectPath).
			Int("size_bytes", len(data)).
			Msg("blob write failed, continuing without url")
		return degraded[string](fmt.Errorf("%w: %s: %v", ErrBlobStorage, objectPath, err))
	}

	s.metrics.ObserveStage(stage, string(StageOK))
	logger.Debug().Str("stage", stage).Str("object_path", objectPath).Msg("blob stored")
	return ok(publicURL)
}

func (s *SubmissionService) generate(ctx context.Context, logger zerolog.Logger, photo *validatedPhoto, activity *string) Outcome[[]byte] {
	img, err := s.generator.Generate(ctx, imagegen.Request{
		Image:       photo.data,
		Filename:    photo.filename,
		ContentType: photo.format.MIME,
		Prompt:      imagegen.BuildPrompt(activity),
	})
	if err != nil {
		s.metrics.ObserveStage("generate", string(StageDegraded))
		logger.Error().Err(err).
			Str("filename", photo.filename).
			Bool("has_activity", activity != nil).
			Msg("image generation failed, continuing without generated image")
		return degraded[[]byte](fmt.Errorf("%w: %v", ErrImageGeneration, err))
	}

	s.metrics.ObserveStage("generate", string(StageOK))
	logger.Debug().Int("size_bytes", len(img)).Msg("image generated")
	return ok(img)
}

func (s *SubmissionService) writeRecord(ctx context.Context, logger zerolog.Logger, member models.Member) Outcome[models.Member] {
	created, err := s.members.Create(ctx, member)
	if err != nil {
		s.metrics.ObserveStage("persist", string(StageFatal))
		ev := logger.Error().Err(err)
		if member.ImageURL != nil {
			ev = ev.Str("orphaned_image_url", *member.ImageURL)
		}
		if member.OriginalImageURL != nil {
			ev = ev.Str("orphaned_original_url", *member.OriginalImageURL)
		}
		ev.Msg("member insert failed")
		return fatal[models.Member](fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	s.metrics.ObserveStage("persist", string(StageOK))
	return ok(created)
}

func urlOf(o Outcome[string]) *string {
	if o.Status != StageOK {
		return nil
	}
	u := o.Value
	return &u
}

func imageResult(original, generated Outcome[string]) *ImageResult {
	switch {
	case generated.Status == StageOK:
		return &ImageResult{Status: ImageGenerated, URL: generated.Value}
	case original.Status == StageOK:
		return &ImageResult{Status: ImageOriginalOnly, URL: original.Value}
	default:
		return &ImageResult{Status: ImageFailed}
	}
}

func validate(input SubmissionInput, maxPhotoBytes int64) (models.Member, string, *validatedPhoto, error) {
	name := strings.TrimSpace(input.Name)
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)

	var missing []string
	if name == "" {
		if first == "" {
			missing = append(missing, "firstname")
		}
		if last == "" {
			missing = append(missing, "lastname")
		}
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return models.Member{}, "", nil, &ValidationError{
			Message: "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	slug := storage.Slug(first, last)
	if name == "" {
		name = first + " " + last
	} else if first == "" || last == "" {
		slug = storage.Slug(name)
	}

	member := models.Member{
		Name:      name,
		FirstName: optional(first),
		LastName:  optional(last),
		Email:     email,
		Location:  optional(input.Location),
		Activity:  optional(input.Activity),
	}

	if input.Photo == nil {
		return member, slug, nil, nil
	}

	photo, err := validatePhoto(input.Photo, maxPhotoBytes)
	if err != nil {
		return models.Member{}, "", nil, err
	}
	return member, slug, photo, nil
}

func validatePhoto(p *Photo, maxBytes int64) (*validatedPhoto, error) {
	if len(p.Data) == 0 {
		return nil, &ValidationError{Message: "image is empty"}
	}
	if maxBytes > 0 && int64(len(p.Data)) > maxBytes {
		return nil, &ValidationError{Message: fmt.Sprintf("image exceeds %d bytes", maxBytes)}
	}

	format, err := sniffer.DetectHead(p.Data)
	if err != nil {
		return nil, &ValidationError{Message: "image must be a PNG, JPEG, WEBP or GIF file"}
	}

	filename := strings.TrimSpace(p.Filename)
	if filename == "" {
		filename = "photo" + format.Ext
	}
	return &validatedPhoto{
		data:     p.Data,
		filename: filename,
		declared: strings.TrimSpace(p.DeclaredType),
		format:   format,
	}, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
