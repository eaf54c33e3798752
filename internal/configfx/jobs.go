package configfx

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/jobfile"
)

// LoadRegistry reads the jobs mapping of the config file in use. The global
// destination may also come from the environment or flags through viper.
func LoadRegistry(logger logrus.FieldLogger, v *viper.Viper) (*domain.Registry, error) {
	doc := &jobfile.Document{}

	if path := v.ConfigFileUsed(); path != "" {
		var err error

		doc, err = jobfile.Load(path)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to load jobs")
		}
	}

	registry, err := domain.NewRegistry(v.GetString(ConfigDestination), doc.Jobs)
	if err != nil {
		return nil, err
	}

	logger.WithField("jobs", registry.Len()).Debug("Jobs loaded")

	return registry, nil
}
