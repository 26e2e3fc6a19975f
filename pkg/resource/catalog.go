package resource

import (
	"strings"
	"sync/atomic"

	"github.com/zurustar/iescript/pkg/ids"
)

// Contents is one consistent set of resource data. Any field may be nil.
type Contents struct {
	Index       *Index
	Strings     *StringTable
	ScriptNames *ScriptNames
	Titles      map[string]string
}

// Exists implements ids.Resources.
func (c *Contents) Exists(name string) bool {
	return c.Index.Exists(name)
}

func (c *Contents) StringRef(index int64) (string, bool) {
	return c.Strings.Text(index)
}

func (c *Contents) ResourceTitle(name string) (string, bool) {
	t, ok := c.Titles[strings.ToUpper(name)]
	return t, ok
}

// ScriptNameKnown reports enabled == false when no name list is loaded.
func (c *Contents) ScriptNameKnown(name string) (known, enabled bool) {
	if c.ScriptNames == nil {
		return false, false
	}
	return c.ScriptNames.Known(name), true
}

// Catalog holds the current Contents. Refreshing swaps in a whole new
// Contents, so readers never see a partly updated catalog.
type Catalog struct {
	cur atomic.Pointer[Contents]
}

func NewCatalog(c Contents) *Catalog {
	cat := &Catalog{}
	cat.cur.Store(&c)
	return cat
}

// Swap installs c and returns the previous contents.
func (cat *Catalog) Swap(c Contents) Contents {
	return *cat.cur.Swap(&c)
}

// Update applies fn to a copy of the current contents and installs the
// result. Concurrent updates are serialized by retrying.
func (cat *Catalog) Update(fn func(c *Contents)) {
	for {
		old := cat.cur.Load()
		next := *old
		fn(&next)
		if cat.cur.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (cat *Catalog) Contents() Contents {
	return *cat.cur.Load()
}

// PinResources implements ids.ResourcePinner.
func (cat *Catalog) PinResources() ids.Resources {
	return cat.cur.Load()
}

func (cat *Catalog) Exists(name string) bool {
	return cat.cur.Load().Exists(name)
}

func (cat *Catalog) StringRef(index int64) (string, bool) {
	return cat.cur.Load().StringRef(index)
}

func (cat *Catalog) ResourceTitle(name string) (string, bool) {
	return cat.cur.Load().ResourceTitle(name)
}

func (cat *Catalog) ScriptNameKnown(name string) (bool, bool) {
	return cat.cur.Load().ScriptNameKnown(name)
}
