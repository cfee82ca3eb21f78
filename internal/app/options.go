package service

import (
	"path/filepath"

	"github.com/okian/vidtag/internal/adapters/repository"
	"github.com/okian/vidtag/internal/config"
	"github.com/okian/vidtag/internal/domain/labels"
)

// OptionsFromConfig translates a loaded Config into service options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	mode, err := repository.ParseMergeMode(cfg.MergeMode)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithRecordNaming(cfg.RecordNaming),
		WithMergeMode(mode),
		WithHalfColumn(cfg.HalfColumn),
		WithHalf(cfg.Half),
		WithDefaultFrameRate(cfg.DefaultFrameRate),
		WithMarkerArm(cfg.MarkerArm),
		WithLabelFiles(labels.NewFiles(filepath.Clean(cfg.LabelsDir), cfg.EventLabelsFile, cfg.TeamLabelsFile)),
	}, nil
}
