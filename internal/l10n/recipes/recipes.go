// Package recipes holds the Thunderbird Fluent migrations.
package recipes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/commgraph/internal/l10n/migration"
)

const (
	fromPathPlaceholderConstant = "from_path"
	unknownRecipeTemplate       = "unknown migration recipe %s"
	recipeErrorTemplate         = "migration recipe %s: %w"
)

// Recipe registers the rules of one migration into a migration context.
type Recipe struct {
	Name        string
	Description string
	Target      string
	Reference   string
	FromPath    string
	Template    string
}

// UnknownRecipeError reports a recipe name that is not registered.
type UnknownRecipeError struct {
	Name string
}

// Error describes the unknown recipe.
func (unknownRecipeError UnknownRecipeError) Error() string {
	return fmt.Sprintf(unknownRecipeTemplate, unknownRecipeError.Name)
}

var registeredRecipes = []Recipe{
	{
		Name:        "bug_1703164_connection",
		Description: "Bug 1703164 - mail/components/preferences/connection.xhtml to top level html",
		Target:      "mail/messenger/preferences/connection.ftl",
		Reference:   "mail/messenger/preferences/connection.ftl",
		FromPath:    "mail/messenger/preferences/connection.ftl",
		Template: `
connection-dialog-title = {{COPY_PATTERN(from_path, "connection-dialog-window2.title")}}
`,
	},
	{
		Name:        "bug_1703164_messengerLanguages",
		Description: "Bug 1703164 - mail/components/preferences/messengerLanguages.xhtml to top level html",
		Target:      "mail/messenger/preferences/languages.ftl",
		Reference:   "mail/messenger/preferences/languages.ftl",
		FromPath:    "mail/messenger/preferences/languages.ftl",
		Template: `
messenger-languages-dialog-title = {{COPY_PATTERN(from_path, "messenger-languages-window2.title")}}
`,
	},
}

// Migrate registers the recipe rules with the migration context.
func (recipe Recipe) Migrate(migrationContext *migration.Context) error {
	rules, parseError := migration.TransformsFrom(recipe.Template, map[string]string{fromPathPlaceholderConstant: recipe.FromPath})
	if parseError != nil {
		return fmt.Errorf(recipeErrorTemplate, recipe.Name, parseError)
	}
	if addError := migrationContext.AddTransforms(recipe.Target, recipe.Reference, rules); addError != nil {
		return fmt.Errorf(recipeErrorTemplate, recipe.Name, addError)
	}
	return nil
}

// All returns the registered recipes ordered by name.
func All() []Recipe {
	recipes := append([]Recipe(nil), registeredRecipes...)
	sort.Slice(recipes, func(leftIndex int, rightIndex int) bool {
		return recipes[leftIndex].Name < recipes[rightIndex].Name
	})
	return recipes
}

// Lookup returns the recipe registered under name.
func Lookup(name string) (Recipe, error) {
	trimmedName := strings.TrimSpace(name)
	for _, recipe := range registeredRecipes {
		if recipe.Name == trimmedName {
			return recipe, nil
		}
	}
	return Recipe{}, UnknownRecipeError{Name: name}
}

// Select resolves names into recipes, returning every recipe when names is empty.
func Select(names []string) ([]Recipe, error) {
	if len(names) == 0 {
		return All(), nil
	}
	selected := make([]Recipe, 0, len(names))
	for _, name := range names {
		recipe, lookupError := Lookup(name)
		if lookupError != nil {
			return nil, lookupError
		}
		selected = append(selected, recipe)
	}
	return selected, nil
}
