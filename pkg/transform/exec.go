package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/gosvelte/pkg/sourcemap"
	"gitlab.com/tozd/go/errors"
)

// ExecGenerator runs an external generator process per request. The request is
// written to stdin as JSON and the process answers on stdout with
//
//	{"code": "...", "map": {"mappings": "..."}, "error": {"message": "...", "start": {...}, "end": {...}}}
//
// A non-null error object is returned as a *GenerateError.
type ExecGenerator struct {
	Command []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

type execResponse struct {
	Code string `json:"code"`
	Map  *struct {
		Mappings string `json:"mappings"`
	} `json:"map"`
	Error *GenerateError `json:"error"`
}

var _ Generator = (*ExecGenerator)(nil)

func (me *ExecGenerator) Generate(ctx context.Context, req *Request) (*Output, error) {
	if len(me.Command) == 0 {
		return nil, errors.New("no generator command configured")
	}

	if me.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, me.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Errorf("encoding generator request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, me.Command[0], me.Command[1:]...)
	cmd.Dir = me.Dir
	if len(me.Env) > 0 {
		cmd.Env = append(os.Environ(), me.Env...)
	}
	cmd.Stdin = bytes.NewReader(body)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Errorf("running generator %q: %w: %s", me.Command[0], err, msg)
		}
		return nil, errors.Errorf("running generator %q: %w", me.Command[0], err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("command", me.Command[0]).
		Dur("took", time.Since(start)).
		Int("stdout_bytes", stdout.Len()).
		Msg("generator finished")

	var resp execResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.Errorf("decoding generator response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	out := &Output{Code: resp.Code}
	if resp.Map != nil {
		lines, err := sourcemap.Decode(resp.Map.Mappings)
		if err != nil {
			return nil, errors.Errorf("decoding generator source map: %w", err)
		}
		out.Mappings = lines
		out.HasMap = true
	}
	return out, nil
}
