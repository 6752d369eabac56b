// Package main 启动应用程序
package main

import (
	"os"

	"github.com/yeisme/worksheethub/pkg/cmd"
)

//	@title			WorksheetHub API
//	@version		1.0
//	@description	WorksheetHub 是儿童可打印练习题的目录服务，按年龄段与分类管理练习题、封面与 PDF.

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
