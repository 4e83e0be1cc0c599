package palog

import "go.uber.org/zap"

var zapLogger *zap.Logger
var log *zap.SugaredLogger

func init() {
	InitLogger(false)
}

// InitLogger 初始化全局日志器
// debug 为 true 时使用开发模式 (带颜色、Debug 级别)
func InitLogger(debug bool) {
	var err error
	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log = zapLogger.Sugar()
}
