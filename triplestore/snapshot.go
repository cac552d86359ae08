package triplestore

import (
	"context"
	"fmt"
	"io"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	snapshotVersion = 1
	// ImportBatchSize is the number of triples sent per INSERT DATA on import.
	ImportBatchSize = 500
)

// A snapshot is a msgpack stream: one snapshotHeader followed by Count
// snapshotTriple values.
type snapshotHeader struct {
	Version   int    `msgpack:"version"`
	Namespace string `msgpack:"namespace"`
	Count     int    `msgpack:"count"`
}

type snapshotTriple struct {
	Subject   string       `msgpack:"s"`
	Predicate string       `msgpack:"p"`
	Object    driver.Value `msgpack:"o"`
}

// Export writes the triples of the given classes, or of the whole store when
// none is given, to w. Triples touching blank nodes are skipped. It returns
// the number of triples written.
func (m *Manager) Export(ctx context.Context, w io.Writer, classes ...string) (int, error) {
	var stmts []Statement
	if len(classes) == 0 {
		bindings, err := m.query(ctx, "export", ast.Select(varS, varP, varO).WithWhere(ast.Triple(varS, varP, varO)))
		if err != nil {
			return 0, err
		}
		stmts = statements(bindings)
	} else {
		for _, class := range classes {
			s, err := m.GetAll(ctx, class)
			if err != nil {
				return 0, fmt.Errorf("export: %w", err)
			}
			stmts = append(stmts, s...)
		}
	}

	seen := make(map[Statement]bool, len(stmts))
	kept := make([]snapshotTriple, 0, len(stmts))
	skipped := 0
	for _, st := range stmts {
		if seen[st] {
			continue
		}
		seen[st] = true
		if st.Object.IsBlank() || st.Subject == "" || !ast.IsIRI(st.Subject) {
			skipped++
			continue
		}
		kept = append(kept, snapshotTriple{Subject: st.Subject, Predicate: st.Predicate, Object: st.Object})
	}
	if skipped > 0 {
		m.logger.Warn("export skipped blank node triples", zap.Int("skipped", skipped))
	}

	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(snapshotHeader{Version: snapshotVersion, Namespace: m.factory.Namespace(), Count: len(kept)}); err != nil {
		return 0, &SnapshotError{Message: "writing header", Cause: err}
	}
	for i := range kept {
		if err := enc.Encode(&kept[i]); err != nil {
			return i, &SnapshotError{Message: "writing triple", Cause: err}
		}
	}
	m.logger.Debug("exported", zap.Int("triples", len(kept)))
	return len(kept), nil
}

// Import replays a snapshot written by Export as batched INSERT DATA
// requests. It returns the number of triples sent; on error, the batches
// before the failing one remain applied.
func (m *Manager) Import(ctx context.Context, r io.Reader) (int, error) {
	dec := msgpack.NewDecoder(r)
	var hdr snapshotHeader
	if err := dec.Decode(&hdr); err != nil {
		return 0, &SnapshotError{Message: "reading header", Cause: err}
	}
	if hdr.Version != snapshotVersion {
		return 0, &SnapshotError{Message: fmt.Sprintf("unsupported version %d", hdr.Version)}
	}
	if hdr.Count < 0 {
		return 0, &SnapshotError{Message: fmt.Sprintf("invalid triple count %d", hdr.Count)}
	}
	if hdr.Namespace != m.factory.Namespace() {
		m.logger.Warn("snapshot namespace differs",
			zap.String("snapshot", hdr.Namespace), zap.String("store", m.factory.Namespace()))
	}

	sent := 0
	batch := make([]ast.TriplePattern, 0, ImportBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := m.update(ctx, "import", ast.InsertData(batch...)); err != nil {
			return err
		}
		sent += len(batch)
		batch = batch[:0]
		return nil
	}

	for i := 0; i < hdr.Count; i++ {
		var st snapshotTriple
		if err := dec.Decode(&st); err != nil {
			return sent, &SnapshotError{Message: fmt.Sprintf("reading triple %d", i), Cause: err}
		}
		t, err := st.pattern()
		if err != nil {
			return sent, &SnapshotError{Message: fmt.Sprintf("triple %d", i), Cause: err}
		}
		batch = append(batch, t)
		if len(batch) == ImportBatchSize {
			if err := flush(); err != nil {
				return sent, err
			}
		}
	}
	if err := flush(); err != nil {
		return sent, err
	}
	m.logger.Debug("imported", zap.Int("triples", sent))
	return sent, nil
}

func (st snapshotTriple) pattern() (ast.TriplePattern, error) {
	if err := ast.ValidateIRI(st.Subject); err != nil {
		return ast.TriplePattern{}, err
	}
	if err := ast.ValidateIRI(st.Predicate); err != nil {
		return ast.TriplePattern{}, err
	}
	o, err := TermFromValue(st.Object)
	if err != nil {
		return ast.TriplePattern{}, err
	}
	return ast.Triple(ast.I(st.Subject), ast.I(st.Predicate), o), nil
}
