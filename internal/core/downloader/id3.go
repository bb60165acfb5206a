package downloader

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"

	"tuneharvest/internal/shared"
)

// ID3TagWriter writes ID3v2.4 frames into MP3 files
type ID3TagWriter struct {
	warnings *shared.WarningCollector
	logger   *log.Logger
}

// WriteTags sets the text frames and the front cover.
// Art that is not a recognizable image is skipped with a warning.
func (w *ID3TagWriter) WriteTags(path string, tags shared.TagFields, art []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return &shared.TaggingError{Err: fmt.Errorf("failed to open %s: %w", path, err)}
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Artist)
	tag.SetAlbum(tags.Album)
	if tags.Genre != "" {
		tag.SetGenre(tags.Genre)
	}
	if tags.Year != "" {
		tag.SetYear(tags.Year)
	}
	if tags.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(tags.TrackNumber))
	}

	if len(art) > 0 {
		if isKnownImage(art) {
			tag.DeleteFrames(tag.CommonID("Attached picture"))
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    tag.DefaultEncoding(),
				MimeType:    detectImageFormat(art),
				PictureType: id3v2.PTFrontCover,
				Description: "Front Cover",
				Picture:     art,
			})
		} else {
			w.logger.Debug("dropping cover art", "path", path, "bytes", len(art))
			w.warnings.AddCoverArtMetadataWarning(tags.Title, "cover art is not a recognized image")
		}
	}

	if err := tag.Save(); err != nil {
		return &shared.TaggingError{Err: fmt.Errorf("failed to save tags: %w", err)}
	}
	return nil
}
