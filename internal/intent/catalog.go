// ABOUTME: Thread-safe, ordered catalog of intent definitions.
// ABOUTME: Compiles each example phrase into an anchored pattern once, at registration.

package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrInvalidIntent indicates a definition that cannot be registered.
var ErrInvalidIntent = errors.New("invalid intent definition")

// ErrIntentNotFound indicates the named intent is not in the catalog.
var ErrIntentNotFound = errors.New("intent not found")

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// compiledExample is the precomputed matching state for one example phrase.
type compiledExample struct {
	phrase    string
	pattern   *regexp.Regexp
	slots     []string            // entity type per capture group, left to right
	words     map[string]struct{} // non-placeholder example words
	wordCount int                 // includes duplicates
}

type entry struct {
	def      Definition
	examples []compiledExample
}

// Catalog holds intents in registration order. Order matters: the matcher
// resolves confidence ties in favour of whichever intent was registered first.
type Catalog struct {
	mu      sync.RWMutex
	entries []*entry
	index   map[string]int // intent name -> position in entries
}

// NewCatalog creates a catalog pre-populated with defs, in order.
// Returns the first registration error encountered.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int)}
	for _, def := range defs {
		if err := c.Add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers def. An existing intent with the same name is overwritten
// entirely and keeps its original position.
func (c *Catalog) Add(def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidIntent)
	}
	e := compileEntry(def.clone())

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		c.index = make(map[string]int)
	}
	if pos, exists := c.index[def.Name]; exists {
		c.entries[pos] = e
		return nil
	}
	c.index[def.Name] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// Replace overwrites the intent called name with def. def.Name may differ from
// name, in which case the intent is renamed in place. Returns ErrIntentNotFound
// if name is not registered.
func (c *Catalog) Replace(name string, def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidIntent)
	}
	e := compileEntry(def.clone())

	c.mu.Lock()
	defer c.mu.Unlock()

	pos, exists := c.index[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrIntentNotFound, name)
	}
	if name != def.Name {
		if _, taken := c.index[def.Name]; taken {
			return fmt.Errorf("%w: %s already registered", ErrInvalidIntent, def.Name)
		}
		delete(c.index, name)
		c.index[def.Name] = pos
	}
	c.entries[pos] = e
	return nil
}

// Remove deletes the named intent. Returns false if it was not registered.
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, exists := c.index[name]
	if !exists {
		return false
	}
	c.entries = append(c.entries[:pos], c.entries[pos+1:]...)
	delete(c.index, name)
	for i := pos; i < len(c.entries); i++ {
		c.index[c.entries[i].def.Name] = i
	}
	return true
}

// Get returns a copy of the named definition.
func (c *Catalog) Get(name string) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, exists := c.index[name]
	if !exists {
		return Definition{}, false
	}
	return c.entries[pos].def.clone(), true
}

// All returns copies of every definition in registration order.
func (c *Catalog) All() []Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]Definition, 0, len(c.entries))
	for _, e := range c.entries {
		defs = append(defs, e.def.clone())
	}
	return defs
}

// Len returns the number of registered intents.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// snapshot returns the current entries. Entries are never mutated after
// compilation, so the slice can be scanned without holding the lock.
func (c *Catalog) snapshot() []*entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*entry(nil), c.entries...)
}

func compileEntry(def Definition) *entry {
	declared := make(map[string]struct{}, len(def.EntityTypes))
	for _, t := range def.EntityTypes {
		declared[t] = struct{}{}
	}

	e := &entry{def: def, examples: make([]compiledExample, 0, len(def.Examples))}
	for _, phrase := range def.Examples {
		e.examples = append(e.examples, compileExample(phrase, declared))
	}
	return e
}

// compileExample builds the anchored pattern and word set for one phrase.
// Literal text is lowercased and escaped; each declared placeholder becomes a
// greedy capture group. Undeclared placeholders stay literal.
func compileExample(phrase string, declared map[string]struct{}) compiledExample {
	trimmed := strings.TrimSpace(phrase)
	ce := compiledExample{phrase: strings.ToLower(trimmed), words: make(map[string]struct{})}

	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(trimmed, -1) {
		b.WriteString(regexp.QuoteMeta(strings.ToLower(trimmed[last:loc[0]])))
		typ := trimmed[loc[2]:loc[3]]
		if _, ok := declared[typ]; ok {
			b.WriteString("(.+)")
			ce.slots = append(ce.slots, typ)
		} else {
			b.WriteString(regexp.QuoteMeta(strings.ToLower(trimmed[loc[0]:loc[1]])))
		}
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(strings.ToLower(trimmed[last:])))
	b.WriteString("$")

	// Every piece is escaped, so compilation only fails on pathological input;
	// such examples still score through word overlap.
	if re, err := regexp.Compile(b.String()); err == nil {
		ce.pattern = re
	}

	for _, w := range strings.Fields(ce.phrase) {
		if isPlaceholderToken(w) {
			continue
		}
		ce.words[w] = struct{}{}
		ce.wordCount++
	}
	return ce
}

func isPlaceholderToken(w string) bool {
	loc := placeholderRe.FindStringIndex(w)
	return loc != nil && loc[0] == 0 && loc[1] == len(w)
}

// score computes the confidence of normalized against this example.
func (ce compiledExample) score(normalized string, words []string) (float64, []Entity) {
	if ce.pattern != nil {
		if groups := ce.pattern.FindStringSubmatch(normalized); groups != nil {
			var entities []Entity
			for i, typ := range ce.slots {
				captured := groups[i+1]
				entities = append(entities, Entity{Type: typ, Value: captured, Text: captured})
			}
			return 1.0, entities
		}
	}

	if ce.wordCount == 0 {
		return 0, nil
	}
	hits := 0
	for _, w := range words {
		if _, ok := ce.words[w]; ok {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(ce.wordCount)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
