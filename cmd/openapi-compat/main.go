// Package main provides a CLI that guards the API surface the mobile app
// depends on. It diffs two generated swagger.yaml files for removed paths,
// operations, and response codes, and can additionally verify that a spec
// still covers the frozen contract called by released app builds.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// mobileContract lists every operation shipped app builds call. Paths are
// relative to the /api base path, matching the generated spec. Removing an
// entry here requires a forced app update, so the list only ever grows.
var mobileContract = []struct {
	Method string
	Path   string
}{
	{"post", "/auth/register"},
	{"post", "/auth/login"},
	{"post", "/auth/google"},
	{"post", "/auth/logout"},
	{"get", "/auth/preferences-status"},
	{"get", "/user/preference"},
	{"post", "/user/preference"},
	{"get", "/user/profile"},
	{"put", "/user/profile"},
	{"put", "/user/avatar"},
	{"get", "/user/dashboard"},
	{"post", "/scan-food"},
	{"get", "/recommendation"},
	{"get", "/recommendation/plan"},
	{"post", "/food-log"},
	{"get", "/food-log"},
	{"post", "/meal-log"},
	{"get", "/meal-log"},
	{"post", "/meal-log/{id}/consume"},
	{"get", "/menus"},
	{"get", "/menus/{id}"},
	{"get", "/ingredients"},
	{"get", "/public/articles"},
	{"get", "/public/articles/{slug}"},
	{"post", "/feedback"},
	{"get", "/feedback/me"},
}

type operation struct {
	Responses map[string]struct{}
}

type parsedSpec struct {
	Paths map[string]map[string]operation
}

func main() {
	basePath := flag.String("base", "", "base OpenAPI swagger.yaml path")
	revisionPath := flag.String("revision", "", "revision OpenAPI swagger.yaml path")
	checkContract := flag.Bool("contract", false, "verify the revision still covers the mobile app contract")
	flag.Parse()

	if strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat [-base <path>] -revision <path> [-contract]")
		os.Exit(2)
	}
	if strings.TrimSpace(*basePath) == "" && !*checkContract {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat [-base <path>] -revision <path> [-contract]")
		os.Exit(2)
	}

	revisionSpec, err := loadSpec(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision spec: %v\n", err)
		os.Exit(1)
	}

	var issues []string

	if strings.TrimSpace(*basePath) != "" {
		baseSpec, err := loadSpec(*basePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load base spec: %v\n", err)
			os.Exit(1)
		}
		issues = append(issues, compare(baseSpec, revisionSpec)...)
	}

	if *checkContract {
		issues = append(issues, contractIssues(revisionSpec)...)
	}

	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

func loadSpec(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}

	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}

	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}

	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			methodLower := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[methodLower]; !supported {
				continue
			}

			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}

			responseSet := make(map[string]struct{})
			if responsesRaw, exists := methodMap["responses"]; exists {
				if responsesMap, ok := toMap(responsesRaw); ok {
					for code := range responsesMap {
						normalized := strings.ToLower(strings.TrimSpace(code))
						if normalized != "" {
							responseSet[normalized] = struct{}{}
						}
					}
				}
			}

			ops[methodLower] = operation{Responses: responseSet}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}

	return spec, nil
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func compare(base, revision parsedSpec) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for responseCode := range baseOp.Responses {
				if _, ok := revOp.Responses[responseCode]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(responseCode),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

func contractIssues(revision parsedSpec) []string {
	var issues []string

	for _, want := range mobileContract {
		ops, ok := revision.Paths[want.Path]
		if !ok {
			issues = append(issues, fmt.Sprintf("mobile contract path missing: %s", want.Path))
			continue
		}
		if _, ok := ops[want.Method]; !ok {
			issues = append(issues, fmt.Sprintf(
				"mobile contract operation missing: %s %s",
				strings.ToUpper(want.Method), want.Path,
			))
		}
	}

	sort.Strings(issues)
	return issues
}
