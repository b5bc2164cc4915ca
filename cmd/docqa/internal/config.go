package internal

import (
	"fmt"
	"os"

	"github.com/DreamCats/docqa/internal/config"
)

// LoadConfig 从指定路径读取并解析 YAML 配置文件。
// 路径为空时使用默认位置 ~/.docqa/config/docqa.yaml。
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// PrintConfigExample 向 stderr 打印一份 YAML 配置示例。
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.docqa/config/docqa.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Document corpus (required for indexing)
corpus:
  dir: data/docs
  include:
    - "**/*.txt"
    - "**/*.md"

# Embedding service (required)
embedding:
  base_url: http://localhost:1234/v1
  model: text-embedding-qwen3-embedding-0.6b
  dimensions: 1024
  # api_key can also come from EMBED_API_KEY or OPENAI_API_KEY

# Language model service (required)
lm:
  base_url: http://localhost:1234/v1
  model: qwen3-4b-instruct

Usage:
  1. Create the config file
  2. Put documents under corpus.dir
  3. Run: docqa index
  4. Ask: docqa ask "your question"
`, configPath)
}
