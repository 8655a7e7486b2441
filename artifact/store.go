// Package artifact persists fitted models at a single well-known path.
//
// The on-disk format is a gob-encoded envelope holding the model's exported
// parameters. Unexported model fields are never encoded directly, so a
// decoded artifact always rebuilds a fully fitted model.
package artifact

import (
	"encoding/gob"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/delaycast/core/model"
	"github.com/YuminosukeSato/delaycast/linear"
	"github.com/YuminosukeSato/delaycast/pkg/errors"
	"github.com/YuminosukeSato/delaycast/pkg/log"
)

// DefaultPath is where the active model lives when no path is configured.
const DefaultPath = "models/trained_model.gob"

const (
	formatVersion = 1
	kindLinear    = "linear"
)

// staleTempAge is how old an orphaned temp file must be before Save removes
// it. Younger files may belong to a save running in another process.
const staleTempAge = 10 * time.Minute

type envelope struct {
	Format    int
	Kind      string
	TrainedAt time.Time
	Linear    *linear.Params
}

// FileStore reads and writes one model artifact.
//
// FileStore does no locking of its own. Its owner serializes Load and Save.
type FileStore struct {
	path      string
	logger    log.Logger
	now       func() time.Time
	trainedAt time.Time
}

// NewFileStore returns a store for path. An empty path selects DefaultPath
// and a nil logger selects the package default.
func NewFileStore(path string, logger log.Logger) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &FileStore{
		path:   path,
		logger: logger.With(log.ComponentKey, "artifact", log.PathKey, path),
		now:    time.Now,
	}
}

// Path returns the artifact location.
func (s *FileStore) Path() string {
	return s.path
}

// TrainedAt returns the training time recorded by the last successful Load
// or Save, or the zero time.
func (s *FileStore) TrainedAt() time.Time {
	return s.trainedAt
}

// Load decodes the artifact. Any failure is logged and reported as absence.
func (s *FileStore) Load() (model.Regressor, bool) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no model artifact found",
				log.OperationKey, log.OperationLoad,
				log.ErrorCodeKey, log.ErrorArtifactAbsent,
			)
		} else {
			s.warnAbsent("cannot open model artifact", err)
		}
		return nil, false
	}
	defer f.Close()

	var env envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		s.warnAbsent("cannot decode model artifact", err)
		return nil, false
	}

	m, err := decode(env)
	if err != nil {
		s.warnAbsent("model artifact rejected", err)
		return nil, false
	}

	s.trainedAt = env.TrainedAt
	s.logger.Info("model artifact loaded",
		log.OperationKey, log.OperationLoad,
		log.FeaturesKey, m.NFeatures(),
	)
	return m, true
}

func decode(env envelope) (model.Regressor, error) {
	if env.Format != formatVersion {
		return nil, errors.Newf("unsupported artifact format %d", env.Format)
	}
	switch env.Kind {
	case kindLinear:
		if env.Linear == nil {
			return nil, errors.New("linear artifact without parameters")
		}
		lr, err := linear.FromParams(*env.Linear)
		if err != nil {
			return nil, err
		}
		return lr, nil
	default:
		return nil, errors.Newf("unsupported model kind %q", env.Kind)
	}
}

func (s *FileStore) warnAbsent(msg string, err error) {
	s.logger.Warn(msg,
		log.OperationKey, log.OperationLoad,
		log.ErrorCodeKey, log.ErrorArtifactAbsent,
		log.ErrAttrKey, err,
	)
}

// Save atomically replaces the artifact with m. Missing parent directories
// are created. On failure the previous artifact is untouched and a
// StorageError is returned.
func (s *FileStore) Save(m model.Regressor) error {
	const op = "artifact.Save"

	env, err := s.encode(m)
	if err != nil {
		return errors.NewStorageError(op, s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewStorageError(op, s.path, err)
	}

	s.removeStaleTemps(dir)

	tmp, err := os.CreateTemp(dir, s.tempPattern())
	if err != nil {
		return errors.NewStorageError(op, s.path, err)
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, env); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError(op, s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.NewStorageError(op, s.path, err)
	}

	s.trainedAt = env.TrainedAt
	s.logger.Info("model artifact saved",
		log.OperationKey, log.OperationSave,
		log.FeaturesKey, m.NFeatures(),
	)
	return nil
}

func (s *FileStore) tempPattern() string {
	return "." + filepath.Base(s.path) + ".*.tmp"
}

// removeStaleTemps deletes temp files left behind by a save that crashed
// between CreateTemp and Rename.
func (s *FileStore) removeStaleTemps(dir string) {
	matches, err := filepath.Glob(filepath.Join(dir, s.tempPattern()))
	if err != nil {
		return
	}
	cutoff := s.now().Add(-staleTempAge)
	for _, name := range matches {
		info, err := os.Lstat(name)
		if err != nil || !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(name); err != nil {
			s.logger.Warn("cannot remove stale artifact temp file",
				log.OperationKey, log.OperationSave,
				log.ErrAttrKey, err,
			)
			continue
		}
		s.logger.Info("removed stale artifact temp file",
			log.OperationKey, log.OperationSave,
			log.TempFileKey, filepath.Base(name),
		)
	}
}

func (s *FileStore) encode(m model.Regressor) (envelope, error) {
	switch lr := m.(type) {
	case *linear.LinearRegression:
		p, err := lr.Params()
		if err != nil {
			return envelope{}, err
		}
		return envelope{
			Format:    formatVersion,
			Kind:      kindLinear,
			TrainedAt: s.now().UTC(),
			Linear:    &p,
		}, nil
	default:
		return envelope{}, errors.Newf("unsupported model type %T", m)
	}
}

func writeAndSync(f *os.File, env envelope) error {
	if err := gob.NewEncoder(f).Encode(env); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
