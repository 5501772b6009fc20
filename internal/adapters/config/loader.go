// Package config provides the configuration loader for fastrag.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/agrospai/fastrag/internal/core/domain"
	"github.com/agrospai/fastrag/internal/core/ports"
	"github.com/go-playground/validator/v10"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger    ports.Logger
	FS        FileSystem
	LookupEnv func(string) (string, bool)

	validate *validator.Validate
}

// NewLoader creates a new Loader reading from the OS filesystem and environment.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: OSFS{}, LookupEnv: os.LookupEnv, validate: newValidator()}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("lifespan", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseLifespan(fl.Field().String())
		return err == nil
	})
	return v
}

// Load locates and parses the configuration. An explicit path wins over
// FASTRAG_CONFIG_PATH; without either the directories from cwd upwards are
// searched for a known file name.
func (l *Loader) Load(cwd, path string) (*domain.Config, error) {
	configPath, err := l.locate(cwd, path)
	if err != nil {
		return nil, err
	}

	raw, err := l.FS.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var dotenv map[string]string
	if data, err := l.FS.ReadFile(filepath.Join(filepath.Dir(configPath), domain.EnvFileName)); err == nil {
		dotenv = parseDotenv(data)
	}
	raw = expand(raw, l.LookupEnv, dotenv, func(name string) {
		l.Logger.Warn(fmt.Sprintf("environment variable %s is not set", name))
	})

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	if err := l.validator().Struct(file); err != nil {
		return nil, zerr.With(validationError(err), "path", configPath)
	}
	if len(file.Resources.Sources.Steps) == 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrNoSources, "resources.sources.steps"), "path", configPath)
	}

	return toDomain(configPath, &file)
}

func (l *Loader) validator() *validator.Validate {
	if l.validate == nil {
		l.validate = newValidator()
	}
	return l.validate
}

func (l *Loader) locate(cwd, path string) (string, error) {
	if path == "" {
		path, _ = l.LookupEnv(domain.ConfigEnvVar)
	}
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		path = filepath.Clean(path)
		if _, err := l.FS.Stat(path); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "path", path)
		}
		return path, nil
	}

	dir := filepath.Clean(cwd)
	for {
		for _, name := range domain.ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "discover"), "cwd", cwd)
}

func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return zerr.Wrap(err, domain.ErrConfigInvalid.Error())
	}

	errs := make([]error, 0, len(fields))
	for _, fe := range fields {
		ns := fe.Namespace()
		if _, rest, ok := strings.Cut(ns, "."); ok {
			ns = rest
		}
		e := zerr.With(zerr.Wrap(domain.ErrConfigInvalid, ns), "rule", fe.Tag())
		errs = append(errs, zerr.With(e, "value", fe.Value()))
	}
	return errors.Join(errs...)
}

func toDomain(configPath string, file *File) (*domain.Config, error) {
	lifespan, err := domain.ParseLifespan(file.Resources.Cache.Lifespan)
	if err != nil {
		return nil, err
	}

	cache := domain.CacheConfig{
		Strategy: file.Resources.Cache.Strategy,
		Lifespan: lifespan,
		Path:     resolvePath(configPath, file.Resources.Cache.Path, domain.DefaultBasePath()),
	}
	if cache.Strategy == "" {
		cache.Strategy = "local"
	}

	return &domain.Config{
		Path: configPath,
		Resources: domain.Resources{
			Sources:  toSteps(file.Resources.Sources.Steps),
			Cache:    cache,
			Store:    toStrategyPtr(file.Resources.Store),
			LLM:      toStrategyPtr(file.Resources.LLM),
			Embedder: toStrategyPtr(file.Resources.Embedder),
		},
		Experiments: domain.Experiments{
			MaxConcurrent: file.Experiments.MaxConcurrent,
			Steps:         toSteps(file.Experiments.Steps),
		},
		Benchmarking: toStrategies(file.Benchmarking),
	}, nil
}

// resolvePath anchors a relative configured path at the configuration's directory.
func resolvePath(configPath, configured, fallback string) string {
	if configured == "" {
		configured = fallback
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(filepath.Dir(configPath), configured))
}

func toSteps(in StepsDTO) domain.Steps {
	out := make(domain.Steps, 0, len(in))
	for _, st := range in {
		out = append(out, domain.Stage{Name: domain.Capability(st.Name), Strategies: toStrategies(st.Strategies)})
	}
	return out
}

func toStrategies(in []StrategyDTO) []domain.Strategy {
	out := make([]domain.Strategy, 0, len(in))
	for _, s := range in {
		out = append(out, toStrategy(s))
	}
	return out
}

func toStrategy(s StrategyDTO) domain.Strategy {
	return domain.Strategy{Name: s.Strategy, Params: domain.Params(s.Params)}
}

func toStrategyPtr(s *StrategyDTO) *domain.Strategy {
	if s == nil {
		return nil
	}
	out := toStrategy(*s)
	return &out
}
