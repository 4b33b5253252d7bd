// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import "sync"

// RecipeStore looks recipes up by their RecipeHash.
type RecipeStore interface {
	Get(hash string) (recipe string, ok bool)
	// Location names where the store keeps recipes, for error messages.
	Location() string
}

// RecipeSink is implemented by stores that accept new recipes. A supplier
// configured WithRecipeStore puts every final failing recipe into its store
// when the store is also a RecipeSink.
type RecipeSink interface {
	Put(recipe string) (hash string)
}

// LookupRecipe fetches the recipe for hash from store, failing with a
// *RecipeNotFoundError that names both the hash and the store location.
func LookupRecipe(store RecipeStore, hash string) (string, error) {
	recipe, ok := store.Get(hash)
	if !ok {
		return "", &RecipeNotFoundError{Hash: hash, Location: store.Location()}
	}
	return recipe, nil
}

// MemoryRecipeStore keeps recipes in process memory. It is safe for
// concurrent use.
type MemoryRecipeStore struct {
	mu      sync.RWMutex
	recipes map[string]string
}

// NewMemoryRecipeStore returns an empty store.
func NewMemoryRecipeStore() *MemoryRecipeStore {
	return &MemoryRecipeStore{recipes: make(map[string]string)}
}

// Put stores recipe and returns its hash.
func (s *MemoryRecipeStore) Put(recipe string) string {
	hash := RecipeHash(recipe)
	s.mu.Lock()
	s.recipes[hash] = recipe
	s.mu.Unlock()
	return hash
}

func (s *MemoryRecipeStore) Get(hash string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recipe, ok := s.recipes[hash]
	return recipe, ok
}

func (s *MemoryRecipeStore) Location() string { return "memory" }

// Len returns the number of stored recipes.
func (s *MemoryRecipeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recipes)
}
