package pipeline

import (
	"github.com/korjavin/integralsheet/config"
	"github.com/korjavin/integralsheet/models"
)

// DisplaySettings resolves the per-exercise display settings. Configured
// defaults lose to the assignment's output_settings, which lose to its
// equation_format block.
func DisplaySettings(defaults config.DisplayConfig, out models.OutputSettings) models.DisplaySettings {
	ds := models.DisplaySettings{
		Units:             defaults.Units,
		DecimalPrecision:  defaults.DecimalPrecision,
		ShowSteps:         defaults.ShowSteps,
		ShowEquation:      defaults.ShowEquation,
		ShowQuantityLabel: defaults.ShowQuantityLabel,
	}
	if out.Units != nil {
		ds.Units = *out.Units
	}
	if out.DecimalPrecision != nil {
		ds.DecimalPrecision = *out.DecimalPrecision
	}
	if out.ShowSteps != nil {
		ds.ShowSteps = *out.ShowSteps
	}
	if eq := out.EquationFormat; eq != nil {
		if eq.ShowEquation != nil {
			ds.ShowEquation = *eq.ShowEquation
		}
		if eq.ShowQuantityLabel != nil {
			ds.ShowQuantityLabel = *eq.ShowQuantityLabel
		}
	}
	if ds.Units == "" {
		ds.Units = models.DefaultUnits
	}
	if ds.DecimalPrecision < 0 {
		ds.DecimalPrecision = models.DefaultPrecision
	}
	return ds
}
