package config

import "dario.cat/mergo"

// mergeOverride merges src over dst in place, with src's non-zero fields
// winning — the same pattern the teacher uses to layer user YAML over
// built-in defaults.
func mergeOverride(dst, src any) error {
	return mergo.Merge(dst, src, mergo.WithOverride)
}

// mergeCategories merges built-in and user-defined category registries.
// A user-defined category overrides a built-in one with the same name.
func mergeCategories(builtin, user map[string]CategoryConfig) map[string]CategoryConfig {
	result := make(map[string]CategoryConfig, len(builtin)+len(user))
	for name, cat := range builtin {
		result[name] = cat
	}
	for name, cat := range user {
		result[name] = cat
	}
	return result
}
