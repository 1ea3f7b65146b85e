package reference

// GovernorateSeed is the canonical record for one governorate, keyed by Code.
type GovernorateSeed struct {
	Name   string
	NameEn string
	Code   string
}

// PartySeed is the canonical record for one party, keyed by Name.
type PartySeed struct {
	Name         string
	NameEn       string
	Abbreviation string
}

// IndependentPartyName is the placeholder party for unaffiliated candidates.
const IndependentPartyName = "مستقل"

var governorates = []GovernorateSeed{
	{Name: "القاهرة", NameEn: "Cairo", Code: "CAI"},
	{Name: "الجيزة", NameEn: "Giza", Code: "GIZ"},
	{Name: "الإسكندرية", NameEn: "Alexandria", Code: "ALX"},
	{Name: "الدقهلية", NameEn: "Dakahlia", Code: "DAK"},
	{Name: "البحر الأحمر", NameEn: "Red Sea", Code: "RSS"},
	{Name: "البحيرة", NameEn: "Beheira", Code: "BEH"},
	{Name: "الفيوم", NameEn: "Fayoum", Code: "FAY"},
	{Name: "الغربية", NameEn: "Gharbia", Code: "GHR"},
	{Name: "الإسماعيلية", NameEn: "Ismailia", Code: "ISM"},
	{Name: "المنوفية", NameEn: "Monufia", Code: "MNF"},
	{Name: "المنيا", NameEn: "Minya", Code: "MNY"},
	{Name: "القليوبية", NameEn: "Qalyubia", Code: "QLY"},
	{Name: "الوادي الجديد", NameEn: "New Valley", Code: "WAD"},
	{Name: "شمال سيناء", NameEn: "North Sinai", Code: "NSI"},
	{Name: "جنوب سيناء", NameEn: "South Sinai", Code: "SSI"},
	{Name: "الشرقية", NameEn: "Sharqia", Code: "SHR"},
	{Name: "سوهاج", NameEn: "Sohag", Code: "SOH"},
	{Name: "السويس", NameEn: "Suez", Code: "SUZ"},
	{Name: "أسوان", NameEn: "Aswan", Code: "ASW"},
	{Name: "أسيوط", NameEn: "Asyut", Code: "ASY"},
	{Name: "بني سويف", NameEn: "Beni Suef", Code: "BNS"},
	{Name: "بورسعيد", NameEn: "Port Said", Code: "PTS"},
	{Name: "دمياط", NameEn: "Damietta", Code: "DAM"},
	{Name: "كفر الشيخ", NameEn: "Kafr El Sheikh", Code: "KFS"},
	{Name: "مطروح", NameEn: "Matrouh", Code: "MAT"},
	{Name: "الأقصر", NameEn: "Luxor", Code: "LUX"},
	{Name: "قنا", NameEn: "Qena", Code: "QEN"},
}

var parties = []PartySeed{
	{Name: "حزب الوفد", NameEn: "Al-Wafd Party", Abbreviation: "الوفد"},
	{Name: "الحزب الوطني الديمقراطي", NameEn: "National Democratic Party", Abbreviation: "الوطني"},
	{Name: "حزب الغد", NameEn: "Al-Ghad Party", Abbreviation: "الغد"},
	{Name: "حزب التجمع الوطني التقدمي الوحدوي", NameEn: "National Progressive Unionist Party", Abbreviation: "التجمع"},
	{Name: "حزب الناصري", NameEn: "Nasserist Party", Abbreviation: "الناصري"},
	{Name: "حزب الكرامة", NameEn: "Al-Karama Party", Abbreviation: "الكرامة"},
	{Name: "حزب الوسط الجديد", NameEn: "New Wasat Party", Abbreviation: "الوسط"},
	{Name: "حزب الحرية المصري", NameEn: "Egyptian Freedom Party", Abbreviation: "الحرية"},
	{Name: "حزب المصريين الأحرار", NameEn: "Free Egyptians Party", Abbreviation: "المصريين الأحرار"},
	{Name: "حزب النور", NameEn: "Al-Nour Party", Abbreviation: "النور"},
	{Name: "حزب البناء والتنمية", NameEn: "Building and Development Party", Abbreviation: "البناء والتنمية"},
	{Name: "حزب الإصلاح والتنمية", NameEn: "Reform and Development Party", Abbreviation: "الإصلاح والتنمية"},
	{Name: "حزب مستقبل وطن", NameEn: "Future of a Nation Party", Abbreviation: "مستقبل وطن"},
	{Name: "حزب المؤتمر", NameEn: "Conference Party", Abbreviation: "المؤتمر"},
	{Name: "حزب الشعب الجمهوري", NameEn: "Republican People's Party", Abbreviation: "الشعب الجمهوري"},
	{Name: IndependentPartyName, NameEn: "Independent", Abbreviation: "مستقل"},
}

// Governorates returns a copy of the canonical governorate list.
func Governorates() []GovernorateSeed {
	return append([]GovernorateSeed(nil), governorates...)
}

// Parties returns a copy of the canonical party list.
func Parties() []PartySeed {
	return append([]PartySeed(nil), parties...)
}
