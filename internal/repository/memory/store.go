// Package memory implements every repository in process. It backs
// DB_DRIVER=memory and the service and handler tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

// Store holds all entities behind one lock so cross-entity rules (content
// type references, term associations) see a consistent view.
type Store struct {
	mu           sync.RWMutex
	orgs         map[string]*domain.Organization
	users        map[string]*domain.User
	contentTypes map[string]*domain.ContentType
	contents     map[string]*domain.Content
	links        map[string]*domain.Links
	terms        map[domain.TermKind]map[string]*domain.Term
	media        map[string]*domain.Media
}

func New() *Store {
	return &Store{
		orgs:         map[string]*domain.Organization{},
		users:        map[string]*domain.User{},
		contentTypes: map[string]*domain.ContentType{},
		contents:     map[string]*domain.Content{},
		links:        map[string]*domain.Links{},
		terms: map[domain.TermKind]map[string]*domain.Term{
			domain.KindCategory: {},
			domain.KindTag:      {},
		},
		media: map[string]*domain.Media{},
	}
}

func (s *Store) Organizations() *OrganizationRepository { return &OrganizationRepository{s: s} }
func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) ContentTypes() *ContentTypeRepository   { return &ContentTypeRepository{s: s} }
func (s *Store) Contents() *ContentRepository           { return &ContentRepository{s: s} }
func (s *Store) Categories() *TermRepository            { return &TermRepository{s: s, kind: domain.KindCategory} }
func (s *Store) Tags() *TermRepository                  { return &TermRepository{s: s, kind: domain.KindTag} }
func (s *Store) Media() *MediaRepository                { return &MediaRepository{s: s} }

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func newestFirst[T any](items []T, at func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return at(items[i]).After(at(items[j])) })
}

func byName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool { return name(items[i]) < name(items[j]) })
}

func page[T any](items []T, p domain.Page) ([]T, int) {
	return domain.Window(items, p), len(items)
}

var (
	_ domain.OrganizationRepository = (*OrganizationRepository)(nil)
	_ domain.UserRepository         = (*UserRepository)(nil)
	_ domain.ContentTypeRepository  = (*ContentTypeRepository)(nil)
	_ domain.ContentRepository      = (*ContentRepository)(nil)
	_ domain.TermRepository         = (*TermRepository)(nil)
	_ domain.MediaRepository        = (*MediaRepository)(nil)
)
