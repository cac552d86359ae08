package triplestore

import (
	"context"
	"errors"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"go.uber.org/zap"
)

// OntologyTriples declares every registered class as an rdfs:Class and links
// each subclass to its direct parent with rdfs:subClassOf.
func (m *Manager) OntologyTriples() []ast.TriplePattern {
	var out []ast.TriplePattern
	for _, info := range rdfmap.RegisteredClasses() {
		class := ast.I(m.factory.ClassIRI(info.Name))
		out = append(out, ast.IsA(class, ast.I(ast.RDFSClass)))
		if info.Parent != "" {
			out = append(out, ast.Triple(class, ast.I(ast.RDFSSubClassOf), ast.I(m.factory.ClassIRI(info.Parent))))
		}
	}
	return out
}

// SyncOntology writes the class hierarchy of the registered classes to the
// store and returns the number of triples sent. Existing declarations are
// left alone; stores keep triples as a set.
func (m *Manager) SyncOntology(ctx context.Context) (int, error) {
	triples := m.OntologyTriples()
	if len(triples) == 0 {
		return 0, errors.New("sync ontology: no registered classes")
	}
	if err := m.update(ctx, "sync ontology", ast.InsertData(triples...)); err != nil {
		return 0, err
	}
	m.logger.Debug("ontology synced", zap.Int("triples", len(triples)))
	return len(triples), nil
}
