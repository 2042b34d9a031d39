// Package maintenance hosts background housekeeping jobs.
package maintenance

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/models"
)

// minUploadAge keeps the sweeper away from files whose post record may
// still be in flight.
const minUploadAge = time.Hour

// Sweeper periodically deletes upload files no post references, such
// as images replaced by a later update.
type Sweeper struct {
	db        *sql.DB
	uploadDir string
	cron      *cron.Cron
}

// NewSweeper creates a new Sweeper over the given upload directory.
func NewSweeper(db *sql.DB, uploadDir string) *Sweeper {
	return &Sweeper{db: db, uploadDir: uploadDir}
}

// Run starts the sweep schedule and blocks until Stop is called.
func (s *Sweeper) Run() {
	log.Info().Msg("Starting background upload sweeper...")
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@hourly", s.Sweep); err != nil {
		log.Error().Err(err).Msg("Failed to schedule upload sweep")
		return
	}

	// Run once immediately on start
	s.Sweep()

	s.cron.Run()
}

// Stop halts the schedule. Any sweep in progress finishes.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	log.Info().Msg("Stopped background upload sweeper.")
}

// Sweep deletes unreferenced upload files older than minUploadAge.
func (s *Sweeper) Sweep() {
	referenced, err := s.referencedImages()
	if err != nil {
		log.Error().Err(err).Msg("Upload sweep: failed to load referenced images")
		return
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.uploadDir).Msg("Upload sweep: failed to read upload dir")
		return
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == models.DefaultFeaturedImage {
			continue
		}
		if referenced[entry.Name()] {
			continue
		}
		info, err := entry.Info()
		if err != nil || time.Since(info.ModTime()) < minUploadAge {
			continue
		}
		if err := os.Remove(filepath.Join(s.uploadDir, entry.Name())); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Upload sweep: failed to remove file")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Upload sweep removed orphaned files")
	}
}

func (s *Sweeper) referencedImages() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT DISTINCT featured_image FROM posts")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	referenced := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		referenced[name] = true
	}
	return referenced, rows.Err()
}
