package notebook

import "fmt"

// Sync reshapes nb to match specs, the way a front end would after the file
// was edited elsewhere: cells absent from specs are removed, new ones are
// inserted, order follows specs and sources are updated. A cell whose kind
// changed is replaced. Sync returns the ids of code cells that were added or
// whose source changed, in the order given.
func (nb *Memory) Sync(specs []CellSpec) ([]string, error) {
	want := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			return nil, fmt.Errorf("cell id must not be empty")
		}
		if _, dup := want[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate cell id %q", spec.ID)
		}
		want[spec.ID] = struct{}{}
	}

	for _, cell := range nb.Cells() {
		if _, ok := want[cell.ID()]; !ok {
			nb.Remove(cell.ID())
		}
	}

	var changed []string
	for i, spec := range specs {
		if spec.Kind == "" {
			spec.Kind = KindCode
		}

		existing, ok := nb.Cell(spec.ID)
		if ok && existing.Kind() != spec.Kind {
			nb.Remove(spec.ID)
			ok = false
		}

		if !ok {
			if _, err := nb.Insert(i, spec); err != nil {
				return changed, err
			}
			if spec.Kind == KindCode {
				changed = append(changed, spec.ID)
			}
			continue
		}

		nb.Move(spec.ID, i)
		if existing.Source() != spec.Source {
			nb.SetSource(spec.ID, spec.Source)
			if spec.Kind == KindCode {
				changed = append(changed, spec.ID)
			}
		}
	}
	return changed, nil
}
