package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// NodeScanner Tests
// =============================================================================

func TestNodeScanner_RequireExcludesLocalPaths(t *testing.T) {
	src := []byte(`const express = require("express");
const local = require("./local");
const abs = require('/opt/lib/thing');
`)
	got := Collect(NodeScanner, [][]byte{src})
	assert.Equal(t, []string{"express"}, got)
}

func TestNodeScanner_ESModules(t *testing.T) {
	src := []byte(`import React from 'react';
import { join } from "lodash/fp";
import '@babel/polyfill/lib/noConflict';
import './styles.css';
import fs from 'node:fs';
`)
	got := Collect(NodeScanner, [][]byte{src})
	assert.Equal(t, []string{"@babel/polyfill", "lodash", "react"}, got)
}

func TestNodeScanner_DeduplicatesAcrossFiles(t *testing.T) {
	a := []byte(`require('axios'); require('express')`)
	b := []byte(`import axios from 'axios'`)
	got := Collect(NodeScanner, [][]byte{a, b})
	assert.Equal(t, []string{"axios", "express"}, got)
}

func TestNodeScanner_DynamicRequireIsMissed(t *testing.T) {
	src := []byte("const name = 'ex' + 'press'; require(name);")
	assert.Empty(t, Collect(NodeScanner, [][]byte{src}))
}

// =============================================================================
// PHPScanner Tests
// =============================================================================

func TestPHPScanner_TableDriven(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"single", `<?php use Monolog\Logger;`, []string{"monolog"}},
		{"alias", "<?php\nuse Symfony\\Component\\HttpFoundation\\Request as Req;", []string{"symfony"}},
		{"function import", "<?php\nuse function GuzzleHttp\\json_encode;", []string{"guzzlehttp"}},
		{"leading backslash", "<?php\nuse \\Carbon\\Carbon;", []string{"carbon"}},
		{"group", "<?php\nuse Doctrine\\{ORM, DBAL};", []string{"doctrine"}},
		{"none", "<?php echo 'hi';", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(PHPScanner, [][]byte{[]byte(tt.src)})
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// RubyScanner Tests
// =============================================================================

func TestRubyScanner_SkipsRelativeRequires(t *testing.T) {
	src := []byte(`require 'sinatra'
require "json"
require './lib/helper'
require_relative 'config'
`)
	got := Collect(RubyScanner, [][]byte{src})
	assert.Equal(t, []string{"json", "sinatra"}, got)
}

// =============================================================================
// HandlesFile Tests
// =============================================================================

func TestHandlesFile(t *testing.T) {
	assert.True(t, HandlesFile(NodeScanner, "index.js"))
	assert.True(t, HandlesFile(NodeScanner, "App.TS"))
	assert.False(t, HandlesFile(NodeScanner, "index.json"))
	assert.True(t, HandlesFile(PHPScanner, "index.php"))
	assert.True(t, HandlesFile(RubyScanner, "app.rb"))
	assert.False(t, HandlesFile(RubyScanner, "app.py"))
}
