package palog

// SlotCount 每台设备的物理模块槽位数
const SlotCount = 4

// SlotTable 槽位 × 单位 的通道查找表
// 从 Recording 确定性构建，只持有反向引用，不拥有通道数据
// 同一 (槽位, 单位) 出现多条通道时后来者覆盖前者
type SlotTable struct {
	slots [SlotCount][3]*LogicalChannel
}

// NewSlotTable 根据记录中的逻辑通道构建查找表
func NewSlotTable(rec *Recording) *SlotTable {
	t := &SlotTable{}
	for _, ch := range rec.Channels {
		t.slots[ch.Slot-1][ch.Unit] = ch
	}
	return t
}

// Channel 返回指定槽位 (1..4) 上指定单位的通道，不存在时返回 nil
func (t *SlotTable) Channel(slot int, u Unit) *LogicalChannel {
	if slot < 1 || slot > SlotCount {
		return nil
	}
	return t.slots[slot-1][u]
}

// SlotHasData 槽位上是否有任何通道
func (t *SlotTable) SlotHasData(slot int) bool {
	if slot < 1 || slot > SlotCount {
		return false
	}
	for _, ch := range t.slots[slot-1] {
		if ch != nil {
			return true
		}
	}
	return false
}

// SlotHasPower 槽位上能否得到功率：有直接功率通道，或电压电流齐备
func (t *SlotTable) SlotHasPower(slot int) bool {
	if slot < 1 || slot > SlotCount {
		return false
	}
	row := t.slots[slot-1]
	if row[UnitPower] != nil {
		return true
	}
	return row[UnitVoltage] != nil && row[UnitCurrent] != nil
}

// CountDataSlots 有数据的槽位数量
func (t *SlotTable) CountDataSlots() int {
	n := 0
	for slot := 1; slot <= SlotCount; slot++ {
		if t.SlotHasData(slot) {
			n++
		}
	}
	return n
}

// CountPowerSlots 能得到功率的槽位数量
func (t *SlotTable) CountPowerSlots() int {
	n := 0
	for slot := 1; slot <= SlotCount; slot++ {
		if t.SlotHasPower(slot) {
			n++
		}
	}
	return n
}

// AllSlotsWithDataHavePower 所有有数据的槽位是否都能得到功率
func (t *SlotTable) AllSlotsWithDataHavePower() bool {
	for slot := 1; slot <= SlotCount; slot++ {
		if t.SlotHasData(slot) && !t.SlotHasPower(slot) {
			return false
		}
	}
	return true
}
