package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bruceunx/melsec"
)

// tagFile is the YAML layout accepted by --config. Example:
//
//	tags:
//	  - device: D100
//	    type: word
//	  - device: M8304
//	    type: bit
type tagFile struct {
	Tags []tagEntry `yaml:"tags"`
}

type tagEntry struct {
	Device string `yaml:"device"`
	Type   string `yaml:"type"`
}

func loadTagFile(path string) ([]melsec.QueryTag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file tagFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Tags) == 0 {
		return nil, fmt.Errorf("%s: no tags defined", path)
	}
	tags := make([]melsec.QueryTag, 0, len(file.Tags))
	for _, e := range file.Tags {
		dt := melsec.Word
		if e.Type != "" {
			dt, err = melsec.ParseDataType(e.Type)
			if err != nil {
				return nil, err
			}
		}
		tags = append(tags, melsec.QueryTag{Device: e.Device, Type: dt})
	}
	return tags, nil
}

// parseTagArg parses a command line tag such as "D100", "M0:bit" or
// "D200:dword". The data type defaults to word.
func parseTagArg(arg string) (melsec.QueryTag, error) {
	device, typeName, found := strings.Cut(arg, ":")
	if device == "" {
		return melsec.QueryTag{}, fmt.Errorf("empty device in tag %q", arg)
	}
	dt := melsec.Word
	if found {
		var err error
		dt, err = melsec.ParseDataType(typeName)
		if err != nil {
			return melsec.QueryTag{}, err
		}
	}
	return melsec.QueryTag{Device: device, Type: dt}, nil
}
