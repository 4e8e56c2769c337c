// Package model_dir locates an extracted acoustic model directory on
// disk. Models ship as archives, and a stray extraction level or an
// archive passed by mistake are the usual failure modes, so resolution
// expands wrapper directories and the error says what was actually
// found at each location tried.
package model_dir

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// LooksLikeModelDir reports whether dir holds an extracted acoustic
// model: am and graph subdirectories, or a conf (subdirectory or *.conf
// file) next to one of them. Permissive but not wide open.
func LooksLikeModelDir(fileSys afero.Fs, dir string) bool {
	info, err := fileSys.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}

	entries, err := afero.ReadDir(fileSys, dir)
	if err != nil {
		return false
	}

	var hasConf, hasAm, hasGraph bool
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			switch name {
			case "am":
				hasAm = true
			case "graph":
				hasGraph = true
			case "conf":
				hasConf = true
			}
		} else if strings.HasSuffix(name, ".conf") {
			hasConf = true
		}
	}

	return (hasAm && hasGraph) || (hasConf && (hasAm || hasGraph))
}

// Resolve returns the first candidate that holds a model. A candidate
// directory that is not itself a model is expanded one level, and a
// child that looks like a model wins. Empty candidates are skipped.
func Resolve(fileSys afero.Fs, candidates []string) (string, error) {
	notFound := &NotFoundError{Notes: map[string]string{}}

	for _, cand := range candidates {
		if cand == "" {
			continue
		}

		if LooksLikeModelDir(fileSys, cand) {
			return cand, nil
		}

		if child, ok := expand(fileSys, cand); ok {
			return child, nil
		}

		notFound.Tried = append(notFound.Tried, cand)
		if note := diagnose(fileSys, cand); note != "" {
			notFound.Notes[cand] = note
		}
	}

	return "", notFound
}

func expand(fileSys afero.Fs, dir string) (string, bool) {
	entries, err := afero.ReadDir(fileSys, dir)
	if err != nil {
		return "", false
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		child := filepath.Join(dir, e.Name())
		if LooksLikeModelDir(fileSys, child) {
			return child, true
		}
	}

	return "", false
}

// diagnose explains why a candidate is not a model directory.
func diagnose(fileSys afero.Fs, path string) string {
	info, err := fileSys.Stat(path)
	if err != nil {
		return "does not exist"
	}

	if !info.IsDir() {
		return "is a file, expected an extracted directory (an archive, perhaps?)"
	}

	entries, err := afero.ReadDir(fileSys, path)
	if err != nil {
		return ""
	}

	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, "libvosk") || strings.HasSuffix(name, "vosk.dll") || name == "vosk_api.h" {
			return "holds the vosk library, not an extracted acoustic model"
		}
	}

	return ""
}

// NotFoundError lists every location tried, each with a note on what
// was found there instead of a model.
type NotFoundError struct {
	Tried []string
	Notes map[string]string
}

func (e *NotFoundError) Error() string {
	var b strings.Builder

	b.WriteString("no acoustic model directory found; tried:")
	for _, p := range e.Tried {
		fmt.Fprintf(&b, "\n - %s", p)
		if note := e.Notes[p]; note != "" {
			fmt.Fprintf(&b, " (%s)", note)
		}
	}
	b.WriteString("\ndownload and extract a model (e.g. vosk-model-small-en-us-0.15) so the directory contains am, graph and conf, or point VOSK_MODEL at one")

	return b.String()
}
