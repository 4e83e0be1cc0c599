package palog

import (
	"bufio"
	"encoding/xml"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// 头部以这一行结束标签收尾，之后紧跟 8 字节尾块，再往后就是二进制负载
	headerClosingTag = "</measurement>"
	headerTrailerLen = 8
)

// ChannelDesc 头部中的一条物理通道描述
// 一条描述按使能的检测标志展开成至多两条逻辑通道 (电压在前、电流在后)
type ChannelDesc struct {
	ID         int    // 槽位编号
	HasVoltage bool   // 电压检测使能
	HasCurrent bool   // 电流检测使能
	Model      string // 传感器型号
}

// Header 从文件头部标记段提取出的全部元数据
type Header struct {
	Channels        []ChannelDesc
	SampleInterval  float64 // 采样间隔 (秒)
	MinMax          bool    // min/max 记录模式
	PlannedDuration int     // 计划记录时长 (秒, 截断取整)
	PayloadOffset   int     // 二进制负载的起始字节偏移
}

// 头部标记的结构映射
// 通道元素的名字就是槽位编号 ("<1>...</1>")，先归一化成 "<ch1>" 再解析
type headerXML struct {
	XMLName  xml.Name     `xml:"measurement"`
	Frame    frameXML     `xml:"frame"`
	Channels []channelXML `xml:",any"`
}

type frameXML struct {
	SampleInterval float64 `xml:"smplintvl"`
	LogTime        float64 `xml:"logtime"`
	MinMax         int     `xml:"minmax"`
}

type channelXML struct {
	XMLName xml.Name
	Voltage int    `xml:"u"`
	Current int    `xml:"i"`
	Model   string `xml:"model"`
}

// 标签名以数字开头不是合法的 XML 标识符，结构解析前必须先改写
// "<1>" -> "<ch1>", "</2>" -> "</ch2>"
var digitTagPattern = regexp.MustCompile(`<(/?)([0-9])`)

var channelTagPattern = regexp.MustCompile(`^ch([0-9]+)$`)

// ParseHeader 从流的起始位置读取并解析头部
// 逐行累积文本直到出现结束标签，然后消费 8 字节尾块；
// 返回时 br 恰好指向二进制负载的第一个字节
func ParseHeader(br *bufio.Reader) (*Header, error) {
	var blob strings.Builder
	offset := 0
	for {
		line, err := br.ReadString('\n')
		blob.WriteString(line)
		offset += len(line)
		if strings.Contains(line, headerClosingTag) {
			break
		}
		if err != nil {
			if err == io.EOF {
				return nil, errors.Wrapf(ErrMalformedHeader, "closing tag %q not found before end of input", headerClosingTag)
			}
			return nil, errors.Wrap(err, "reading header lines")
		}
	}

	// 尾块内容语义未知，跳过不校验
	trailer := make([]byte, headerTrailerLen)
	if _, err := io.ReadFull(br, trailer); err != nil {
		return nil, errors.Wrap(ErrMalformedHeader, "missing 8-byte trailer after header")
	}

	normalized := digitTagPattern.ReplaceAllString(blob.String(), "<${1}ch${2}")

	var doc headerXML
	if err := xml.Unmarshal([]byte(normalized), &doc); err != nil {
		return nil, errors.Wrapf(ErrMalformedHeader, "parsing header markup: %v", err)
	}

	if doc.Frame.SampleInterval <= 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "missing or invalid sampling interval")
	}

	hdr := &Header{
		SampleInterval:  doc.Frame.SampleInterval,
		MinMax:          doc.Frame.MinMax != 0,
		PlannedDuration: int(doc.Frame.LogTime),
		PayloadOffset:   offset + headerTrailerLen,
	}

	for _, ch := range doc.Channels {
		m := channelTagPattern.FindStringSubmatch(ch.XMLName.Local)
		if m == nil {
			// 其他未知元素按文档顺序出现在这里，跳过即可
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		hdr.Channels = append(hdr.Channels, ChannelDesc{
			ID:         id,
			HasVoltage: ch.Voltage != 0,
			HasCurrent: ch.Current != 0,
			Model:      ch.Model,
		})
	}

	if len(hdr.Channels) == 0 {
		return nil, errors.Wrap(ErrMalformedHeader, "no channel descriptors in header")
	}

	return hdr, nil
}

// LogicalChannels 把通道描述展开成逻辑通道
// 电压使能先出一条电压通道，电流使能再出一条电流通道，与标志声明顺序无关
func (h *Header) LogicalChannels() []*LogicalChannel {
	var channels []*LogicalChannel
	for _, desc := range h.Channels {
		if desc.HasVoltage {
			channels = append(channels, &LogicalChannel{Slot: desc.ID, Model: desc.Model, Unit: UnitVoltage})
		}
		if desc.HasCurrent {
			channels = append(channels, &LogicalChannel{Slot: desc.ID, Model: desc.Model, Unit: UnitCurrent})
		}
	}
	return channels
}
