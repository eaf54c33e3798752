package metricsfx

import (
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/dupjob/internal/configfx"
	"github.com/yurykabanov/dupjob/pkg/metrics"
)

func TextfileWriter(logger logrus.FieldLogger, config *configfx.MetricsConfig) *metrics.TextfileWriter {
	w := metrics.NewTextfileWriter(config.TextfileDir)

	if !w.Enabled() {
		logger.Debug("Metrics textfile directory is not configured, run metrics are not exported")
	}

	return w
}
