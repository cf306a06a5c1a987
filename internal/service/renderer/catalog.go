package renderer

import (
	"embed"
	"fmt"
	"io/fs"

	"gitee.com/flycash/notification-dispatcher/internal/domain"
	"gopkg.in/yaml.v2"
)

//go:embed templates
var embeddedTemplates embed.FS

const catalogFile = "catalog.yaml"

// Entry 单个模板的声明
type Entry struct {
	File string `yaml:"file"`
	// Subject 为空时由模板数据计算
	Subject string `yaml:"subject"`
}

// Catalog 模板目录
type Catalog struct {
	Layout    string                        `yaml:"layout"`
	Templates map[domain.TemplateName]Entry `yaml:"templates"`
}

// LoadCatalog 从 fsys 根目录读取 catalog.yaml
func LoadCatalog(fsys fs.FS) (Catalog, error) {
	raw, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return Catalog{}, fmt.Errorf("读取模板目录失败: %w", err)
	}
	var c Catalog
	if err = yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("解析模板目录失败: %w", err)
	}
	for name, e := range c.Templates {
		if e.File == "" {
			return Catalog{}, fmt.Errorf("模板 %s 缺少 file", name)
		}
	}
	return c, nil
}

// DefaultFS 内置模板
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
