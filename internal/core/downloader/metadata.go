package downloader

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"tuneharvest/internal/interfaces"
	"tuneharvest/internal/shared"
)

// NewTagWriter returns the tag writer for the target format
func NewTagWriter(format string, warnings *shared.WarningCollector, logger *log.Logger) (interfaces.TagWriter, error) {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	switch format {
	case "mp3":
		return &ID3TagWriter{warnings: warnings, logger: logger}, nil
	case "flac":
		return &FLACTagWriter{warnings: warnings, logger: logger}, nil
	default:
		return nil, fmt.Errorf("no tag writer for format %q", format)
	}
}

// FLACTagWriter writes vorbis comments and a front cover picture into FLAC files
type FLACTagWriter struct {
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// WriteTags replaces any existing comment and picture blocks.
// A picture that cannot be embedded is dropped with a warning.
func (w *FLACTagWriter) WriteTags(path string, tags shared.TagFields, art []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return &shared.TaggingError{Err: fmt.Errorf("failed to parse FLAC file: %w", err)}
	}

	// Remove existing VORBIS_COMMENT and PICTURE blocks to ensure clean metadata
	var newMetaData []*flac.MetaDataBlock
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			newMetaData = append(newMetaData, block)
		}
	}
	f.Meta = newMetaData

	comment := flacvorbis.New()
	fields := []struct{ name, value string }{
		{flacvorbis.FIELD_TITLE, tags.Title},
		{flacvorbis.FIELD_ARTIST, tags.Artist},
		{flacvorbis.FIELD_ALBUM, tags.Album},
		{flacvorbis.FIELD_GENRE, tags.Genre},
		{flacvorbis.FIELD_DATE, tags.Year},
		{"YEAR", tags.Year},
		{"ENCODER", "tuneharvest"},
	}
	if tags.TrackNumber > 0 {
		fields = append(fields, struct{ name, value string }{flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(tags.TrackNumber)})
	}
	for _, field := range fields {
		if err := addField(comment, field.name, field.value); err != nil {
			return &shared.TaggingError{Field: field.name, Err: err}
		}
	}

	vorbisCommentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &vorbisCommentBlock)

	if err := addCoverArt(f, art); err != nil {
		w.logger.Debug("dropping cover art", "path", path, "err", err)
		w.warnings.AddCoverArtMetadataWarning(tags.Title, err.Error())
	}

	if err := f.Save(path); err != nil {
		return &shared.TaggingError{Err: fmt.Errorf("failed to save FLAC file with metadata: %w", err)}
	}
	return nil
}

// addField adds a field to vorbis comment only if value is not empty
func addField(comment *flacvorbis.MetaDataBlockVorbisComment, field, value string) error {
	if value == "" {
		return nil
	}
	return comment.Add(field, value)
}

func addCoverArt(f *flac.File, coverData []byte) error {
	if len(coverData) == 0 {
		return nil
	}

	imageFormat := detectImageFormat(coverData)

	picture, err := flacpicture.NewFromImageData(
		flacpicture.PictureTypeFrontCover,
		"Front Cover",
		coverData,
		imageFormat,
	)
	if err != nil {
		return fmt.Errorf("failed to create picture metadata: %w", err)
	}

	pictureBlock := picture.Marshal()
	f.Meta = append(f.Meta, &pictureBlock)
	return nil
}

// detectImageFormat detects the image format from the data
func detectImageFormat(data []byte) string {
	if len(data) < 4 {
		return "image/jpeg" // Default fallback
	}

	// PNG signature (89 50 4E 47)
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}

	// JPEG signature (FF D8)
	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}

	// WebP signature (RIFF...WEBP)
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp"
	}

	// GIF signature (GIF8)
	if string(data[0:4]) == "GIF8" {
		return "image/gif"
	}

	return "image/jpeg"
}

// isKnownImage reports whether data starts with one of the signatures detectImageFormat recognizes
func isKnownImage(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch {
	case data[0] == 0x89 && string(data[1:4]) == "PNG":
		return true
	case data[0] == 0xFF && data[1] == 0xD8:
		return true
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return true
	case string(data[0:4]) == "GIF8":
		return true
	}
	return false
}
