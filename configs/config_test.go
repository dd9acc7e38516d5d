// Package configs provides configuration structures and utilities for the storefront.
// This file contains tests for the configuration functionality.
//
// Package configs 提供店面的配置结构和工具。
// 本文件包含配置功能的测试。
package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that DefaultConfig returns a properly initialized Config
// with the expected default values for important settings.
//
// TestDefaultConfig 验证DefaultConfig返回一个正确初始化的Config，
// 包含重要设置的预期默认值。
func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	// Test default values
	// 测试默认值
	if config.Server.Addr != ":8080" {
		t.Errorf("Expected Server.Addr to be ':8080', got '%s'", config.Server.Addr)
	}
	if config.Upstream.BaseURL != "https://dummyjson.com" {
		t.Errorf("Expected Upstream.BaseURL to be 'https://dummyjson.com', got '%s'", config.Upstream.BaseURL)
	}
	if config.Cache.ShardCount != 64 {
		t.Errorf("Expected Cache.ShardCount to be 64, got %d", config.Cache.ShardCount)
	}
	if config.Cache.Expire <= config.Cache.Revalidate {
		t.Errorf("Expected Cache.Expire (%v) to exceed Cache.Revalidate (%v)", config.Cache.Expire, config.Cache.Revalidate)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

// TestLoadAndSaveConfig tests the ability to save and load configuration
// to and from files in both YAML and JSON formats.
//
// TestLoadAndSaveConfig 测试将配置保存到文件和从文件加载配置的能力，
// 包括YAML和JSON两种格式。
func TestLoadAndSaveConfig(t *testing.T) {
	// Create a temporary directory for test files
	// 创建测试文件的临时目录
	tempDir, err := os.MkdirTemp("", "storefront-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Test YAML
	// 测试YAML
	yamlPath := filepath.Join(tempDir, "config.yaml")
	config := DefaultConfig()
	config.Cache.MaxEntries = 1000
	config.Cache.Revalidate = 10 * time.Second
	config.Upstream.BaseURL = "https://catalog.example.com"

	// Save config
	// 保存配置
	if err := config.SaveToFile(yamlPath); err != nil {
		t.Fatalf("Failed to save YAML config: %v", err)
	}

	// Load config
	// 加载配置
	loadedConfig, err := LoadFromFile(yamlPath)
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}

	// Verify loaded config
	// 验证加载的配置
	if loadedConfig.Cache.MaxEntries != 1000 {
		t.Errorf("Expected Cache.MaxEntries to be 1000, got %d", loadedConfig.Cache.MaxEntries)
	}
	if loadedConfig.Cache.Revalidate != 10*time.Second {
		t.Errorf("Expected Cache.Revalidate to be 10s, got %v", loadedConfig.Cache.Revalidate)
	}
	if loadedConfig.Upstream.BaseURL != "https://catalog.example.com" {
		t.Errorf("Expected Upstream.BaseURL to be 'https://catalog.example.com', got '%s'", loadedConfig.Upstream.BaseURL)
	}

	// Test JSON
	// 测试JSON
	jsonPath := filepath.Join(tempDir, "config.json")
	config.Cache.MaxEntries = 2000
	config.Server.Addr = ":9090"

	// Save config
	// 保存配置
	if err := config.SaveToFile(jsonPath); err != nil {
		t.Fatalf("Failed to save JSON config: %v", err)
	}

	// Load config
	// 加载配置
	loadedConfig, err = LoadFromFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to load JSON config: %v", err)
	}

	// Verify loaded config
	// 验证加载的配置
	if loadedConfig.Cache.MaxEntries != 2000 {
		t.Errorf("Expected Cache.MaxEntries to be 2000, got %d", loadedConfig.Cache.MaxEntries)
	}
	if loadedConfig.Server.Addr != ":9090" {
		t.Errorf("Expected Server.Addr to be ':9090', got '%s'", loadedConfig.Server.Addr)
	}
}

// TestValidate tests the Validate method to ensure it correctly identifies
// valid and invalid configurations according to the defined constraints.
//
// TestValidate 测试Validate方法，确保它能根据定义的约束
// 正确识别有效和无效的配置。
func TestValidate(t *testing.T) {
	tests := []struct {
		name        string        // Test case name / 测试用例名称
		modifyFunc  func(*Config) // Function to modify config / 修改配置的函数
		expectError bool          // Whether validation should fail / 验证是否应该失败
	}{
		{
			name:        "Valid default config",
			modifyFunc:  func(c *Config) {},
			expectError: false,
		},
		{
			name: "Invalid cache.max_entries",
			modifyFunc: func(c *Config) {
				c.Cache.MaxEntries = -1
			},
			expectError: true,
		},
		{
			name: "Invalid cache.shard_count not power of 2",
			modifyFunc: func(c *Config) {
				c.Cache.ShardCount = 100
			},
			expectError: true,
		},
		{
			name: "Expire not greater than revalidate",
			modifyFunc: func(c *Config) {
				c.Cache.Revalidate = time.Minute
				c.Cache.Expire = time.Minute
			},
			expectError: true,
		},
		{
			name: "Negative stale window",
			modifyFunc: func(c *Config) {
				c.Cache.Stale = -time.Second
			},
			expectError: true,
		},
		{
			name: "Invalid upstream.base_url",
			modifyFunc: func(c *Config) {
				c.Upstream.BaseURL = "ftp://example.com"
			},
			expectError: true,
		},
		{
			name: "Invalid log.level",
			modifyFunc: func(c *Config) {
				c.Log.Level = "invalid"
			},
			expectError: true,
		},
		{
			name: "Missing server.addr",
			modifyFunc: func(c *Config) {
				c.Server.Addr = ""
			},
			expectError: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig()
			test.modifyFunc(config)
			err := config.Validate()
			if test.expectError && err == nil {
				t.Error("Expected validation error, but got nil")
			}
			if !test.expectError && err != nil {
				t.Errorf("Expected no validation error, but got: %v", err)
			}
		})
	}
}

// TestIsPowerOfTwo tests the isPowerOfTwo helper function with various inputs
// to ensure it correctly identifies numbers that are powers of 2.
//
// TestIsPowerOfTwo 使用各种输入测试isPowerOfTwo辅助函数，
// 确保它能正确识别2的幂数。
func TestIsPowerOfTwo(t *testing.T) {
	testCases := []struct {
		n        int  // Input number / 输入数字
		expected bool // Expected result / 预期结果
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{8, true},
		{10, false},
		{64, true},
		{100, false},
		{128, true},
		{1000, false},
		{1024, true},
	}

	for _, tc := range testCases {
		result := isPowerOfTwo(tc.n)
		if result != tc.expected {
			t.Errorf("isPowerOfTwo(%d) = %v, expected %v", tc.n, result, tc.expected)
		}
	}
}
