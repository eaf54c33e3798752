// Package command turns a job and a requested action into the exact engine
// invocation. Building is pure: nothing is executed and no files are read.
package command

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yurykabanov/dupjob/pkg/domain"
	"github.com/yurykabanov/dupjob/pkg/timespec"
)

const (
	DefaultBinary     = "duplicity"
	DefaultCipherAlgo = "AES256"
)

// Variables the engine reads its signing and encryption passphrases from.
var passphraseVars = []string{"PASSPHRASE", "SIGN_PASSPHRASE"}

type Invocation struct {
	Path string
	Args []string
	Env  []string
}

// Argv is the complete command line, binary first.
func (i Invocation) Argv() []string {
	return append([]string{i.Path}, i.Args...)
}

func (i Invocation) String() string {
	return strings.Join(i.Argv(), " ")
}

type Request struct {
	Action domain.Action

	// Time selects the backup set for restore/status/content.
	Time *time.Time

	RestorePath   string
	PathToRestore string

	Progress bool
	Force    bool
}

type Builder struct {
	Binary string

	// Options are passed to every engine call ahead of the action.
	Options []string

	CipherAlgo  string
	EncryptKeys []string

	// Env is the base environment, usually the process environment merged
	// with the environment file.
	Env []string
}

func (b *Builder) Build(job domain.Job, req Request) (Invocation, error) {
	args := b.prefix(job)
	env := b.environment(job, req.Action)

	switch req.Action {
	case domain.ActionBackup:
		args = append(args, b.backupArgs(job, req)...)
	case domain.ActionRestore:
		if req.RestorePath == "" {
			return Invocation{}, &domain.RequestError{Reason: "restore requires a restore path"}
		}
		args = append(args, "restore")
		if req.Progress {
			args = append(args, "--progress")
		}
		if req.Force {
			args = append(args, "--force")
		}
		args = appendTime(args, req.Time)
		if req.PathToRestore != "" {
			args = append(args, "--file-to-restore", req.PathToRestore)
		}
		args = append(args, job.Destination, req.RestorePath)
	case domain.ActionStatus:
		args = append(args, "collection-status")
		args = appendTime(args, req.Time)
		args = append(args, job.Destination)
	case domain.ActionContent:
		args = append(args, "list-current-files")
		args = appendTime(args, req.Time)
		args = append(args, job.Destination)
	case domain.ActionCleanup:
		args = append(args, b.cleanupArgs(job)...)
	default:
		return Invocation{}, &domain.RequestError{Reason: "action " + string(req.Action) + " does not invoke the engine"}
	}

	return Invocation{Path: b.binary(), Args: args, Env: env}, nil
}

func (b *Builder) binary() string {
	if b.Binary == "" {
		return DefaultBinary
	}
	return b.Binary
}

func (b *Builder) prefix(job domain.Job) []string {
	args := make([]string, 0, len(b.Options)+16)
	args = append(args, b.Options...)
	return append(args, "--name="+job.ArchiveName)
}

func (b *Builder) backupArgs(job domain.Job, req Request) []string {
	var args []string

	if job.Type == domain.BackupFull {
		args = append(args, "full")
	} else {
		args = append(args, "incr")
		if job.FullIfOlder > 0 {
			args = append(args, "--full-if-older-than", strconv.Itoa(job.FullIfOlder)+"D")
		}
	}

	if req.Progress {
		args = append(args, "--progress")
	}

	if !job.Compress {
		args = append(args, "--no-compression")
	}

	args = append(args, b.encryptionArgs(job)...)

	for _, f := range job.Filters {
		args = append(args, "--"+string(f.Kind), f.Pattern)
	}

	return append(args, job.Source, job.Destination)
}

func (b *Builder) encryptionArgs(job domain.Job) []string {
	if !job.Encrypt {
		return []string{"--no-encryption"}
	}

	algo := b.CipherAlgo
	if algo == "" {
		algo = DefaultCipherAlgo
	}

	args := []string{"--gpg-options=--cipher-algo=" + algo}
	for _, key := range b.EncryptKeys {
		args = append(args, "--encrypt-key", key)
	}

	return args
}

// cleanupArgs keeps the newest Retention full chains. Without a retention
// the engine only removes leftovers of failed runs.
func (b *Builder) cleanupArgs(job domain.Job) []string {
	if job.Retention > 0 {
		return []string{"remove-all-but-n-full", strconv.Itoa(job.Retention), "--force", job.Destination}
	}
	return []string{"cleanup", "--force", job.Destination}
}

func (b *Builder) environment(job domain.Job, action domain.Action) []string {
	env := make([]string, 0, len(b.Env)+1)

	for _, kv := range b.Env {
		name := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			name = kv[:i]
		}

		if name == "PYTHONIOENCODING" {
			continue
		}
		if action == domain.ActionBackup && !job.Encrypt && isPassphrase(name) {
			continue
		}

		env = append(env, kv)
	}

	env = append(env, "PYTHONIOENCODING=utf-8")
	sort.Strings(env)

	return env
}

func isPassphrase(name string) bool {
	for _, v := range passphraseVars {
		if v == name {
			return true
		}
	}
	return false
}

func appendTime(args []string, t *time.Time) []string {
	if t == nil {
		return args
	}
	return append(args, "--time", timespec.Format(*t))
}
