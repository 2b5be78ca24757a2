// package formatter provides functions to export a room's queue to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// QueueExport is a point-in-time copy of a room's queue.
type QueueExport struct {
	RoomID       string             `json:"room_id"`
	RoomName     string             `json:"room_name"`
	Owner        string             `json:"owner,omitempty"`
	CurrentTrack *models.QueueItem  `json:"current_track,omitempty"`
	Items        []models.QueueItem `json:"items"`
	ExportedAt   time.Time          `json:"exported_at"`
}

// NewQueueExport captures room and queue. A nil queue falls back to the room's own queue.
func NewQueueExport(room models.Room, queue []models.QueueItem) *QueueExport {
	if queue == nil {
		queue = room.Queue
	}
	if queue == nil {
		queue = []models.QueueItem{}
	}
	export := &QueueExport{
		RoomID:       room.ID,
		RoomName:     room.Name,
		CurrentTrack: room.CurrentTrack,
		Items:        queue,
		ExportedAt:   time.Now(),
	}
	if room.Owner != nil {
		export.Owner = room.Owner.Name
	}
	if export.RoomName == "" {
		export.RoomName = room.ID
	}
	return export
}

// CoverImageURL returns the image of the playing track, or of the first queued track that has one.
func (e *QueueExport) CoverImageURL() string {
	if e.CurrentTrack != nil && e.CurrentTrack.Track.ImageURL != "" {
		return e.CurrentTrack.Track.ImageURL
	}
	for _, item := range e.Items {
		if item.Track.ImageURL != "" {
			return item.Track.ImageURL
		}
	}
	return ""
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from an hour up.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func addedBy(item models.QueueItem) string {
	if item.AddedBy == nil {
		return ""
	}
	return item.AddedBy.Name
}

// ExportToCSV converts a QueueExport to CSV format with columns: Position, QueueItemID, TrackID, Name, Artist, Duration, Votes, AddedBy, AddedAt
func ExportToCSV(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "QueueItemID", "TrackID", "Name", "Artist", "Duration", "Votes", "AddedBy", "AddedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range export.Items {
		record := []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.Track.ID,
			item.Track.Name,
			item.Track.Artist,
			strconv.Itoa(item.Track.Duration),
			strconv.Itoa(item.Votes),
			addedBy(item),
			item.AddedAt,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a QueueExport to Markdown with an optional cover image and a queue table
func ExportToMarkdown(export *QueueExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.RoomName))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if export.Owner != "" {
		buf.WriteString(fmt.Sprintf("**Owner**: %s\n", export.Owner))
	}
	if export.CurrentTrack != nil {
		buf.WriteString(fmt.Sprintf("**Now Playing**: %s - %s\n", export.CurrentTrack.Track.Artist, export.CurrentTrack.Track.Name))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Items)))

	buf.WriteString("## Queue\n\n")
	if len(export.Items) == 0 {
		buf.WriteString("_The queue is empty._\n")
		return buf.Bytes(), nil
	}

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Track", "Artist", "Duration", "Votes", "Added By"})
	for i, item := range export.Items {
		tw.AppendRow(table.Row{i + 1, item.Track.Name, item.Track.Artist, FormatDuration(item.Track.Duration), item.Votes, addedBy(item)})
	}
	buf.WriteString(tw.RenderMarkdown())
	buf.WriteString("\n")

	return buf.Bytes(), nil
}

// ExportToText converts a QueueExport to plain text format
func ExportToText(export *QueueExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Room: %s\n", export.RoomName))
	if export.CurrentTrack != nil {
		buf.WriteString(fmt.Sprintf("Now Playing: %s - %s\n", export.CurrentTrack.Track.Artist, export.CurrentTrack.Track.Name))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Items)))

	for i, item := range export.Items {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%+d)\n", i+1, item.Track.Artist, item.Track.Name, item.Votes))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a QueueExport to indented JSON
func ExportToJSON(export *QueueExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// Render encodes export in the named format.
func Render(format string, export *QueueExport) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown, "md":
		return ExportToMarkdown(export, "")
	case FormatText, "text":
		return ExportToText(export)
	case FormatJSON, "":
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCSVExport writes the queue to {base}_queue.csv, defaulting base to the room ID.
func WriteCSVExport(export *QueueExport, baseFilepath string) (string, error) {
	if baseFilepath == "" {
		baseFilepath = export.RoomID
	}

	data, err := ExportToCSV(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	path := baseFilepath + "_queue.csv"
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}
	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a queue to Markdown format in a dedicated directory.
//
// Directory name defaults to the room ID.
// When withCover is set, the cover art of the playing or first queued track is downloaded next to the README.
// A failed download is logged and the README is written without it.
func WriteMarkdownExport(export *QueueExport, outputDir string, withCover bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.RoomID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if url := export.CoverImageURL(); withCover && url != "" {
		logger := shared.WithLogger(shared.NewLogger(nil), "component", "formatter")
		imageData, err := DownloadImage(url)
		if err != nil {
			logger.Warn("failed to download cover image", "url", url, "error", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				logger.Warn("failed to save cover image", "path", coverImagePath, "error", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports a queue to plain text format.
//
// Defaults to {room.ID}_queue.txt as the filename.
func WriteTextExport(export *QueueExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_queue.txt", export.RoomID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a queue as JSON, defaulting to {room.ID}.json.
func WriteJSONExport(export *QueueExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s.json", export.RoomID)
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}
