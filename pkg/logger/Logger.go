package clog

import "go.uber.org/zap"


//=========================================== Custom Log


/*
	NewCustomLog wraps a zap.SugaredLogger behind the same Debug/Info/Warn/Error call shape
	the rest of the codebase already expects, so callers never touch zap directly
*/

func NewCustomLog(name string) *CustomLog {
	zapLogger, _ := zap.NewProduction()

	return &CustomLog{
		Name: name,
		sugar: zapLogger.Sugar().Named(name),
	}
}

func (cLog *CustomLog) Debug(msg ...interface{}) {
	cLog.sugar.Debug(msg...)
}

func (cLog *CustomLog) Error(msg ...interface{}) {
	cLog.sugar.Error(msg...)
}

func (cLog *CustomLog) Info(msg ...interface{}) {
	cLog.sugar.Info(msg...)
}

func (cLog *CustomLog) Warn(msg ...interface{}) {
	cLog.sugar.Warn(msg...)
}
