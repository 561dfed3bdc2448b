package stages

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/teca-go/teca/algorithm"
	"github.com/teca-go/teca/errs"
	"github.com/teca-go/teca/mesh"
	"github.com/teca-go/teca/metadata"
	"github.com/teca-go/teca/rankio"
)

// Writer consumes one dataset per Execute call, serializes it via
// mesh.Mesh.MarshalBinary, and writes it to a path built from a
// filename pattern. "%e%" is the one templating token spec.md allows,
// substituted with the owning rank's index.
type Writer struct {
	algorithm.Base
	FilenamePattern string `teca:"filename_pattern"`
	comm            rankio.Communicator
}

// NewWriter constructs a writer whose output path is built from
// pattern, substituting "%e%" with comm's rank.
func NewWriter(pattern string, comm rankio.Communicator) *Writer {
	if comm == nil {
		comm = rankio.Single{}
	}
	w := &Writer{FilenamePattern: pattern, comm: comm}
	w.Init(1, 0)
	w.RegisterProperties(w)
	return w
}

func (w *Writer) resolvedPath() string {
	return strings.ReplaceAll(w.FilenamePattern, "%e%", fmt.Sprintf("%d", w.comm.Rank()))
}

func (w *Writer) Execute(ctx context.Context, port int, upstream []mesh.Dataset, request *metadata.Metadata) (mesh.Dataset, error) {
	if len(upstream) == 0 {
		return nil, errs.New(errs.ProtocolFailure, "Writer.Execute", fmt.Errorf("no upstream dataset"))
	}
	m, ok := upstream[0].(*mesh.Mesh)
	if !ok {
		return mesh.Empty{}, nil
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return nil, errs.New(errs.IoFailure, "Writer.Execute", err)
	}
	path := w.resolvedPath()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, errs.New(errs.IoFailure, "Writer.Execute", err)
	}
	return mesh.Empty{}, nil
}
