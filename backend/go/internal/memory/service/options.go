package service

import (
	"time"

	"MedMemory/backend/go/internal/config"
	"MedMemory/backend/go/internal/episode"
	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/internal/statement"
)

// Options are the decision constants of a MemoryService.
type Options struct {
	// Mode is config.ModeGated (rule candidate gated by confidence) or
	// config.ModeRule (rule decision only).
	Mode          string
	Lookback      time.Duration
	WindowGapDays int
	Medication    episode.Policy[*models.MedicationFact]
	Symptom       episode.Policy[*models.SymptomFact]
}

// DefaultOptions returns the built-in policies in gated mode.
func DefaultOptions() Options {
	return Options{
		Mode:          config.ModeGated,
		Lookback:      episode.DefaultLookback,
		WindowGapDays: statement.DefaultWindowGapDays,
		Medication:    episode.MedicationPolicy(),
		Symptom:       episode.SymptomPolicy(),
	}
}

// OptionsFromConfig overlays the configured gaps and thresholds on the
// built-in policies.
func OptionsFromConfig(cfg config.DecisionConfig) Options {
	opts := DefaultOptions()
	opts.Mode = cfg.Mode
	if cfg.LookbackMonths > 0 {
		opts.Lookback = cfg.Lookback()
	}
	if cfg.WindowGapDays > 0 {
		opts.WindowGapDays = cfg.WindowGapDays
	}
	opts.Medication = withPolicyConfig(opts.Medication, cfg.Medication)
	opts.Symptom = withPolicyConfig(opts.Symptom, cfg.Symptom)
	return opts
}

func withPolicyConfig[T episode.Fact](p episode.Policy[T], pc config.PolicyConfig) episode.Policy[T] {
	if pc.SplitGapDays > 0 {
		p = p.WithGaps(pc.OverlapGapDays, pc.SplitGapDays)
	}
	normal, risk := p.Scoring.Normal, p.Scoring.Risk
	if pc.Normal != (config.ThresholdConfig{}) {
		normal = episode.Thresholds{Update: pc.Normal.Update, Merge: pc.Normal.Merge}
	}
	if pc.Risk != (config.ThresholdConfig{}) {
		risk = episode.Thresholds{Update: pc.Risk.Update, Merge: pc.Risk.Merge}
	}
	return p.WithThresholds(normal, risk)
}
