package lint

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/openshelf/curator/pkg/catalog"
)

// lintSoftwares applies the per-entry editorial rules.
func (s *Step) lintSoftwares(cat *catalog.Catalog) []catalog.Violation {
	var violations []catalog.Violation
	for _, sw := range cat.Softwares().List() {
		err := validation.ValidateStruct(sw,
			validation.Field(&sw.Description,
				validation.Required.Error("description is required"),
				validation.Length(s.cfg.MinDescriptionLength, s.cfg.MaxDescriptionLength),
			),
			validation.Field(&sw.Licenses,
				validation.Required.Error("at least one license is required"),
			),
		)
		violations = append(violations, toViolations(sw.ID, err)...)
	}
	return violations
}

// toViolations flattens an ozzo field-error map into catalog violations,
// sorted by field for stable output.
func toViolations(id string, err error) []catalog.Violation {
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validation.Errors)
	if !ok {
		return []catalog.Violation{{Resource: "software", ID: id, Message: err.Error()}}
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	violations := make([]catalog.Violation, 0, len(fields))
	for _, field := range fields {
		violations = append(violations, catalog.Violation{
			Resource: "software",
			ID:       id,
			Field:    field,
			Message:  fieldErrs[field].Error(),
		})
	}
	return violations
}

// duplicateNames reports display names shared by more than one entry.
func duplicateNames(cat *catalog.Catalog) []catalog.Violation {
	byName := make(map[string][]string)
	for _, sw := range cat.Softwares().List() {
		if sw.Name != "" {
			byName[sw.Name] = append(byName[sw.Name], sw.ID)
		}
	}

	var violations []catalog.Violation
	for _, sw := range cat.Softwares().List() {
		ids := byName[sw.Name]
		if len(ids) > 1 {
			violations = append(violations, catalog.Violation{
				Resource: "software",
				ID:       sw.ID,
				Field:    "name",
				Message:  fmt.Sprintf("display name %q is shared by %d entries", sw.Name, len(ids)),
			})
		}
	}
	return violations
}

// orphanedRefs reports declared tags and platforms that no entry uses.
func orphanedRefs(cat *catalog.Catalog) []catalog.Violation {
	usedTags := make(map[string]bool)
	usedPlatforms := make(map[string]bool)
	for _, sw := range cat.Softwares().List() {
		for _, ref := range sw.Tags {
			usedTags[ref] = true
		}
		for _, ref := range sw.Platforms {
			usedPlatforms[ref] = true
		}
	}

	var violations []catalog.Violation
	for _, tag := range cat.Tags().List() {
		if !usedTags[tag.ID] {
			violations = append(violations, catalog.Violation{
				Resource: "tag",
				ID:       tag.ID,
				Message:  "declared but referenced by no entry",
			})
		}
	}
	for _, platform := range cat.Platforms().List() {
		if !usedPlatforms[platform.ID] {
			violations = append(violations, catalog.Violation{
				Resource: "platform",
				ID:       platform.ID,
				Message:  "declared but referenced by no entry",
			})
		}
	}
	return violations
}
